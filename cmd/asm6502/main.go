// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command asm6502 is a command-line front end for the asm6502 package:
// it assembles source files to binary images, pretty-prints source
// files in place, and runs a minimal language server over stdio. It
// owns every bit of file I/O the core package deliberately stays away
// from, generalizing the teacher's single `-a` assemble flag (main.go)
// into a small subcommand tree in the style of its interactive
// debugger console (host/cmds.go).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/term"

	"github.com/beevik/asm6502"
	"github.com/beevik/asm6502/lspsrv"
)

var commands *cmd.Tree

func init() {
	commands = cmd.NewTree("asm6502")
	commands.AddCommand(cmd.Command{
		Name:  "build",
		Brief: "Assemble a source file",
		Description: "Assemble INPUT and write one binary image per merge" +
			" target, plus a VICE-format symbol file.",
		Usage: "build <input> [--start=<addr>] [--no-symbols]",
		Data:  cmdBuild,
	})
	commands.AddCommand(cmd.Command{
		Name:  "format",
		Brief: "Pretty-print a source file in place",
		Description: "Reserialize INPUT's parse tree back to source text," +
			" verifying the tree is lossless without reflowing any" +
			" whitespace.",
		Usage: "format <input>",
		Data:  cmdFormat,
	})
	commands.AddCommand(cmd.Command{
		Name:        "lsp",
		Brief:       "Run the language server shell over stdio",
		Description: "Start the JSON-RPC language server shell on stdin/stdout.",
		Usage:       "lsp",
		Data:        cmdLSP,
	})
}

func main() {
	if len(os.Args) < 2 {
		displayUsage()
		os.Exit(2)
	}

	line := strings.Join(os.Args[1:], " ")
	sel, err := commands.Lookup(line)
	switch err {
	case nil:
	case cmd.ErrNotFound:
		fmt.Fprintf(os.Stderr, "asm6502: unknown command %q\n", os.Args[1])
		os.Exit(2)
	case cmd.ErrAmbiguous:
		fmt.Fprintf(os.Stderr, "asm6502: ambiguous command %q\n", os.Args[1])
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
		os.Exit(2)
	}

	handler := sel.Command.Data.(func(cmd.Selection) int)
	os.Exit(handler(sel))
}

func displayUsage() {
	fmt.Fprintln(os.Stderr, "Usage: asm6502 <build|format|lsp> ...")
}

func cmdBuild(c cmd.Selection) int {
	var startAddr int
	writeSymbols := true
	var files []string
	for _, arg := range c.Args {
		switch {
		case strings.HasPrefix(arg, "--start="):
			v, err := strconv.ParseInt(strings.TrimPrefix(arg, "--start="), 0, 32)
			if err != nil {
				fmt.Fprintf(os.Stderr, "asm6502: invalid --start value: %v\n", err)
				return 2
			}
			startAddr = int(v)
		case arg == "--no-symbols":
			writeSymbols = false
		default:
			files = append(files, arg)
		}
	}
	if len(files) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: asm6502 build <input> [--start=<addr>] [--no-symbols]")
		return 2
	}

	filename := files[0]
	text, err := asm6502.DefaultLoader(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
		return 1
	}

	tree, _, sink := asm6502.Parse(filename, text, asm6502.DefaultLoader)
	images, symtab := asm6502.Assemble(tree, asm6502.Options{InitialPC: startAddr}, sink)
	printDiagnostics(sink)
	if sink.HasErrors() {
		return 1
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	for _, img := range images {
		name := base
		if img.Target != "" {
			name += "." + img.Target
		}
		if err := writePRG(name+".prg", img); err != nil {
			fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
			return 1
		}
	}

	if writeSymbols {
		f, err := os.Create(base + ".sym")
		if err != nil {
			fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := asm6502.WriteSymbolFile(f, symtab); err != nil {
			fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
			return 1
		}
	}

	return 0
}

func writePRG(path string, img asm6502.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var hdr [2]byte
	hdr[0] = byte(img.Address & 0xff)
	hdr[1] = byte((img.Address >> 8) & 0xff)
	if _, err := f.Write(hdr[:]); err != nil {
		return err
	}
	_, err = f.Write(img.Data)
	return err
}

func cmdFormat(c cmd.Selection) int {
	if len(c.Args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: asm6502 format <input>")
		return 2
	}
	filename := c.Args[0]
	text, err := asm6502.DefaultLoader(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
		return 1
	}

	tree, _, sink := asm6502.Parse(filename, text, nil)
	if sink.HasErrors() {
		printDiagnostics(sink)
		return 1
	}

	out := asm6502.Format(tree)
	printRewriteDiff(filename, text, out, term.IsTerminal(int(os.Stdout.Fd())))
	if out == text {
		return 0
	}
	if err := os.WriteFile(filename, []byte(out), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
		return 1
	}
	return 0
}

// printRewriteDiff shows which lines format's pending rewrite would
// change, coloring additions/removals when attached to a terminal.
// Format never reflows whitespace (that policy lives outside this
// tree entirely), so in practice this only flags a line whose trivia
// wasn't reproduced exactly — evidence of a parser bug rather than a
// deliberate restyling.
func printRewriteDiff(filename, before, after string, colorize bool) {
	if before == after {
		return
	}
	fmt.Printf("%s: pending rewrite\n", filename)
	beforeLines := strings.Split(before, "\n")
	afterLines := strings.Split(after, "\n")
	n := len(beforeLines)
	if len(afterLines) > n {
		n = len(afterLines)
	}
	for i := 0; i < n; i++ {
		var b, a string
		if i < len(beforeLines) {
			b = beforeLines[i]
		}
		if i < len(afterLines) {
			a = afterLines[i]
		}
		if b == a {
			continue
		}
		if colorize {
			fmt.Printf("\x1b[31m-%s\x1b[0m\n\x1b[32m+%s\x1b[0m\n", b, a)
		} else {
			fmt.Printf("-%s\n+%s\n", b, a)
		}
	}
}

func cmdLSP(c cmd.Selection) int {
	if err := lspsrv.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "asm6502: %v\n", err)
		return 1
	}
	return 0
}

// printDiagnostics writes one line per diagnostic to stderr, coloring
// error severities red when stderr is attached to a terminal.
func printDiagnostics(sink *asm6502.ErrorSink) {
	colorize := term.IsTerminal(int(os.Stderr.Fd()))
	for _, d := range sink.Diagnostics() {
		loc := "?"
		if d.Span.IsValid() {
			pos := d.Span.Begin_()
			loc = fmt.Sprintf("%s:%d:%d", pos.File, pos.Line, pos.Column)
		}
		if colorize && d.Severity == asm6502.SeverityError {
			fmt.Fprintf(os.Stderr, "\x1b[31m%s: %s: %s\x1b[0m\n", loc, d.Severity, d.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", loc, d.Severity, d.Message)
		}
	}
}
