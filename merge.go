// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm6502

import "fmt"

// contribution records which source segment wrote a given range into a
// merge target, for overlap diagnostics.
type contribution struct {
	name   string
	lo, hi int
}

// OverlapError reports that two segments merged into the same target
// wrote intersecting address ranges (spec §4.7).
type OverlapError struct {
	Target    string
	First     string
	FirstLo   int
	FirstHi   int
	Second    string
	SecondLo  int
	SecondHi  int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("segment overlap in target %q: %q [$%04X,$%04X) intersects %q [$%04X,$%04X)",
		e.Target, e.First, e.FirstLo, e.FirstHi, e.Second, e.SecondLo, e.SecondHi)
}

// TargetSegment is the composed output for one named target: a flat
// 64 KiB buffer, the range of addresses actually written, and the list
// of source segments that contributed to it.
type TargetSegment struct {
	Name      string
	Data      [0x10000]byte
	haveRange bool
	rangeLo   int
	rangeHi   int

	contributions []contribution
}

// Range returns the half-open range of addresses written into this
// target.
func (t *TargetSegment) Range() (lo, hi int, ok bool) {
	return t.rangeLo, t.rangeHi, t.haveRange
}

// RangeData returns the bytes in the target's written range.
func (t *TargetSegment) RangeData() []byte {
	lo, hi, ok := t.Range()
	if !ok {
		return nil
	}
	return t.Data[lo:hi]
}

// SegmentMerger composes per-segment byte ranges into named output
// images, detecting overlapping coverage within a target (spec §4.7).
// Unlike Segment (one source segment, one 64 KiB buffer), a
// SegmentMerger may have many source segments feeding the same target
// path, which is why it keeps its own independent dense buffer per
// target rather than reusing a Segment for the composed result.
type SegmentMerger struct {
	targets map[string]*TargetSegment
}

// NewSegmentMerger creates an empty merger.
func NewSegmentMerger() *SegmentMerger {
	return &SegmentMerger{targets: make(map[string]*TargetSegment)}
}

// Merge copies seg's written range into the named target. Segments
// with Write == false must be filtered out by the caller before
// reaching Merge (spec §9 "non-writable segments are invisible to the
// merger").
func (m *SegmentMerger) Merge(target string, seg *Segment) error {
	lo, hi, ok := seg.Range()
	if !ok {
		return nil // nothing emitted; nothing to merge
	}

	t, found := m.targets[target]
	if !found {
		t = &TargetSegment{Name: target}
		m.targets[target] = t
	}

	for _, c := range t.contributions {
		if lo < c.hi && c.lo < hi {
			return &OverlapError{
				Target:   target,
				First:    c.name,
				FirstLo:  c.lo,
				FirstHi:  c.hi,
				Second:   seg.Name,
				SecondLo: lo,
				SecondHi: hi,
			}
		}
	}

	copy(t.Data[lo:hi], seg.Data[lo:hi])
	if !t.haveRange {
		t.rangeLo, t.rangeHi, t.haveRange = lo, hi, true
	} else {
		if lo < t.rangeLo {
			t.rangeLo = lo
		}
		if hi > t.rangeHi {
			t.rangeHi = hi
		}
	}
	t.contributions = append(t.contributions, contribution{seg.Name, lo, hi})
	return nil
}

// Targets returns every named target produced so far, in no particular
// order.
func (m *SegmentMerger) Targets() map[string]*TargetSegment {
	return m.targets
}
