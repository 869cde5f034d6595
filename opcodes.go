// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "strings"

// cpuMode is the final 6502 addressing mode assigned to an instruction,
// as opposed to AddressingMode, which is only the parse-time syntactic
// category of the operand (spec §3 "Addressing mode is a parse-time
// category; the final machine encoding depends on runtime value width
// and operand register suffix.").
type cpuMode byte

const (
	cpuImm cpuMode = iota
	cpuImp
	cpuRel
	cpuZpg
	cpuZpx
	cpuZpy
	cpuAbs
	cpuAbx
	cpuAby
	cpuInd
	cpuIdx
	cpuIdy
	cpuAcc
)

// opcodeCandidate is one (opcode, operand-byte-count) entry in the
// table consulted by instruction encoding (spec §4.6).
type opcodeCandidate struct {
	Mode         cpuMode
	Opcode       byte
	OperandBytes int // 0, 1, or 2
}

// opcodeTable is grounded in the teacher's instructions.go `data` table,
// filtered to the rows with cmos == false: this assembler targets the
// documented NMOS 6502 instruction set only, per spec §1 Non-goals ("no
// 65C02/illegal opcodes"). The teacher's per-opcode metadata not needed
// by an assembler (cycle counts, page-boundary penalties, the CPU
// execution function pointers) is dropped; only (mnemonic, mode,
// opcode, length) survives.
var opcodeTable = map[string][]opcodeCandidate{
	"ADC": {{cpuImm, 0x69, 1}, {cpuZpg, 0x65, 1}, {cpuZpx, 0x75, 1}, {cpuAbs, 0x6d, 2}, {cpuAbx, 0x7d, 2}, {cpuAby, 0x79, 2}, {cpuIdx, 0x61, 1}, {cpuIdy, 0x71, 1}},
	"AND": {{cpuImm, 0x29, 1}, {cpuZpg, 0x25, 1}, {cpuZpx, 0x35, 1}, {cpuAbs, 0x2d, 2}, {cpuAbx, 0x3d, 2}, {cpuAby, 0x39, 2}, {cpuIdx, 0x21, 1}, {cpuIdy, 0x31, 1}},
	"ASL": {{cpuAcc, 0x0a, 0}, {cpuZpg, 0x06, 1}, {cpuZpx, 0x16, 1}, {cpuAbs, 0x0e, 2}, {cpuAbx, 0x1e, 2}},
	"BCC": {{cpuRel, 0x90, 1}},
	"BCS": {{cpuRel, 0xb0, 1}},
	"BEQ": {{cpuRel, 0xf0, 1}},
	"BIT": {{cpuZpg, 0x24, 1}, {cpuAbs, 0x2c, 2}},
	"BMI": {{cpuRel, 0x30, 1}},
	"BNE": {{cpuRel, 0xd0, 1}},
	"BPL": {{cpuRel, 0x10, 1}},
	"BRK": {{cpuImp, 0x00, 0}},
	"BVC": {{cpuRel, 0x50, 1}},
	"BVS": {{cpuRel, 0x70, 1}},
	"CLC": {{cpuImp, 0x18, 0}},
	"CLD": {{cpuImp, 0xd8, 0}},
	"CLI": {{cpuImp, 0x58, 0}},
	"CLV": {{cpuImp, 0xb8, 0}},
	"CMP": {{cpuImm, 0xc9, 1}, {cpuZpg, 0xc5, 1}, {cpuZpx, 0xd5, 1}, {cpuAbs, 0xcd, 2}, {cpuAbx, 0xdd, 2}, {cpuAby, 0xd9, 2}, {cpuIdx, 0xc1, 1}, {cpuIdy, 0xd1, 1}},
	"CPX": {{cpuImm, 0xe0, 1}, {cpuZpg, 0xe4, 1}, {cpuAbs, 0xec, 2}},
	"CPY": {{cpuImm, 0xc0, 1}, {cpuZpg, 0xc4, 1}, {cpuAbs, 0xcc, 2}},
	"DEC": {{cpuZpg, 0xc6, 1}, {cpuZpx, 0xd6, 1}, {cpuAbs, 0xce, 2}, {cpuAbx, 0xde, 2}},
	"DEX": {{cpuImp, 0xca, 0}},
	"DEY": {{cpuImp, 0x88, 0}},
	"EOR": {{cpuImm, 0x49, 1}, {cpuZpg, 0x45, 1}, {cpuZpx, 0x55, 1}, {cpuAbs, 0x4d, 2}, {cpuAbx, 0x5d, 2}, {cpuAby, 0x59, 2}, {cpuIdx, 0x41, 1}, {cpuIdy, 0x51, 1}},
	"INC": {{cpuZpg, 0xe6, 1}, {cpuZpx, 0xf6, 1}, {cpuAbs, 0xee, 2}, {cpuAbx, 0xfe, 2}},
	"INX": {{cpuImp, 0xe8, 0}},
	"INY": {{cpuImp, 0xc8, 0}},
	"JMP": {{cpuAbs, 0x4c, 2}, {cpuInd, 0x6c, 2}},
	"JSR": {{cpuAbs, 0x20, 2}},
	"LDA": {{cpuImm, 0xa9, 1}, {cpuZpg, 0xa5, 1}, {cpuZpx, 0xb5, 1}, {cpuAbs, 0xad, 2}, {cpuAbx, 0xbd, 2}, {cpuAby, 0xb9, 2}, {cpuIdx, 0xa1, 1}, {cpuIdy, 0xb1, 1}},
	"LDX": {{cpuImm, 0xa2, 1}, {cpuZpg, 0xa6, 1}, {cpuZpy, 0xb6, 1}, {cpuAbs, 0xae, 2}, {cpuAby, 0xbe, 2}},
	"LDY": {{cpuImm, 0xa0, 1}, {cpuZpg, 0xa4, 1}, {cpuZpx, 0xb4, 1}, {cpuAbs, 0xac, 2}, {cpuAbx, 0xbc, 2}},
	"LSR": {{cpuAcc, 0x4a, 0}, {cpuZpg, 0x46, 1}, {cpuZpx, 0x56, 1}, {cpuAbs, 0x4e, 2}, {cpuAbx, 0x5e, 2}},
	"NOP": {{cpuImp, 0xea, 0}},
	"ORA": {{cpuImm, 0x09, 1}, {cpuZpg, 0x05, 1}, {cpuZpx, 0x15, 1}, {cpuAbs, 0x0d, 2}, {cpuAbx, 0x1d, 2}, {cpuAby, 0x19, 2}, {cpuIdx, 0x01, 1}, {cpuIdy, 0x11, 1}},
	"PHA": {{cpuImp, 0x48, 0}},
	"PHP": {{cpuImp, 0x08, 0}},
	"PLA": {{cpuImp, 0x68, 0}},
	"PLP": {{cpuImp, 0x28, 0}},
	"ROL": {{cpuAcc, 0x2a, 0}, {cpuZpg, 0x26, 1}, {cpuZpx, 0x36, 1}, {cpuAbs, 0x2e, 2}, {cpuAbx, 0x3e, 2}},
	"ROR": {{cpuAcc, 0x6a, 0}, {cpuZpg, 0x66, 1}, {cpuZpx, 0x76, 1}, {cpuAbs, 0x6e, 2}, {cpuAbx, 0x7e, 2}},
	"RTI": {{cpuImp, 0x40, 0}},
	"RTS": {{cpuImp, 0x60, 0}},
	"SBC": {{cpuImm, 0xe9, 1}, {cpuZpg, 0xe5, 1}, {cpuZpx, 0xf5, 1}, {cpuAbs, 0xed, 2}, {cpuAbx, 0xfd, 2}, {cpuAby, 0xf9, 2}, {cpuIdx, 0xe1, 1}, {cpuIdy, 0xf1, 1}},
	"SEC": {{cpuImp, 0x38, 0}},
	"SED": {{cpuImp, 0xf8, 0}},
	"SEI": {{cpuImp, 0x78, 0}},
	"STA": {{cpuZpg, 0x85, 1}, {cpuZpx, 0x95, 1}, {cpuAbs, 0x8d, 2}, {cpuAbx, 0x9d, 2}, {cpuAby, 0x99, 2}, {cpuIdx, 0x81, 1}, {cpuIdy, 0x91, 1}},
	"STX": {{cpuZpg, 0x86, 1}, {cpuZpy, 0x96, 1}, {cpuAbs, 0x8e, 2}},
	"STY": {{cpuZpg, 0x84, 1}, {cpuZpx, 0x94, 1}, {cpuAbs, 0x8c, 2}},
	"TAX": {{cpuImp, 0xaa, 0}},
	"TAY": {{cpuImp, 0xa8, 0}},
	"TSX": {{cpuImp, 0xba, 0}},
	"TXA": {{cpuImp, 0x8a, 0}},
	"TXS": {{cpuImp, 0x9a, 0}},
	"TYA": {{cpuImp, 0x98, 0}},
}

// branchMnemonics is the set of PC-relative instructions (spec §4.6).
var branchMnemonics = map[string]bool{
	"BCC": true, "BCS": true, "BEQ": true, "BMI": true,
	"BNE": true, "BPL": true, "BVC": true, "BVS": true,
}

// IsMnemonic reports whether s (case-insensitively) names a supported
// instruction.
func IsMnemonic(s string) bool {
	_, ok := opcodeTable[strings.ToUpper(s)]
	return ok
}

// candidateFamily narrows the opcode table down to the candidates
// consistent with the operand's parse-time addressing mode and
// register suffix, before size-based selection (spec §4.6).
func candidateFamily(mnemonic string, mode AddressingMode, reg Register) []opcodeCandidate {
	all := opcodeTable[strings.ToUpper(mnemonic)]
	var wanted []cpuMode
	switch {
	case mode == ModeImplied:
		wanted = []cpuMode{cpuImp, cpuAcc}
	case mode == ModeImmediate:
		wanted = []cpuMode{cpuImm}
	case mode == ModeIndirect && reg == RegX:
		wanted = []cpuMode{cpuIdx}
	case mode == ModeIndirect && reg == RegNone:
		wanted = []cpuMode{cpuInd}
	case mode == ModeOuterIndirect && reg == RegY:
		wanted = []cpuMode{cpuIdy}
	case mode == ModeAbsoluteOrZP && branchMnemonics[strings.ToUpper(mnemonic)]:
		wanted = []cpuMode{cpuRel}
	case mode == ModeAbsoluteOrZP && reg == RegX:
		wanted = []cpuMode{cpuZpx, cpuAbx}
	case mode == ModeAbsoluteOrZP && reg == RegY:
		wanted = []cpuMode{cpuZpy, cpuAby}
	case mode == ModeAbsoluteOrZP && reg == RegNone:
		wanted = []cpuMode{cpuZpg, cpuAbs}
	}

	var out []opcodeCandidate
	for _, w := range wanted {
		for _, c := range all {
			if c.Mode == w {
				out = append(out, c)
			}
		}
	}
	return out
}

// selectOpcode applies the opcode-selection rules of spec §4.6 and
// returns the chosen candidate. resolved indicates whether the operand
// value is known on this pass; value is meaningless if !resolved.
func selectOpcode(mnemonic string, mode AddressingMode, reg Register, resolved bool, value int) (opcodeCandidate, bool) {
	candidates := candidateFamily(mnemonic, mode, reg)
	if len(candidates) == 0 {
		return opcodeCandidate{}, false
	}

	if resolved {
		u := value & 0xffff
		if one := findCandidate(candidates, 1); one != nil && u < 0x100 {
			return *one, true
		}
		if two := findCandidate(candidates, 2); two != nil {
			return *two, true
		}
		// Only a zero-operand (implied/accumulator) candidate, or a
		// 1-byte one (immediate, relative) whose value is >= $100,
		// remains.
		return candidates[0], true
	}

	// Operand unknown: pick the largest candidate so that later-resolved
	// addresses don't shift the layout of subsequent statements (spec
	// §4.6 "Layout stability").
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.OperandBytes > best.OperandBytes {
			best = c
		}
	}
	return best, true
}

func findCandidate(candidates []opcodeCandidate, operandBytes int) *opcodeCandidate {
	for i := range candidates {
		if candidates[i].OperandBytes == operandBytes {
			return &candidates[i]
		}
	}
	return nil
}
