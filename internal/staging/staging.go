// Package staging implements line-granular staging: it translates a text
// selection into the subset of change hunks it touches and rewrites a
// document with only that subset applied.
//
// # Line model
//
// Lines are 0-based and ranges are half-open. A LineChange maps
// original lines [OriginalStart, OriginalEnd) onto modified lines
// [ModifiedStart, ModifiedEnd). An empty original span is a pure
// insertion before original line OriginalStart; an empty modified span is
// a pure deletion whose lines used to sit before modified line
// ModifiedStart.
//
// # Operations
//
//   - ToLineRanges expands selections to whole lines and merges them
//   - IntersectDiffWithRange clips a change to a selected line range
//   - ApplyLineChanges materialises a subset of changes
//   - InvertLineChange swaps the original and modified roles
package staging

import (
	"fmt"
	"sort"

	"github.com/Mschirtzinger/stagehand/internal/document"
)

// Position is a 0-based line and character offset.
type Position struct {
	Line      int
	Character int
}

// Range is a selection between two positions. Start and End may be given
// in either order.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range is a cursor without extent.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// LineRange is the half-open line span [Start, End).
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Contains reports whether line lies inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// LineChange is a contiguous line edit between two versions of a document.
type LineChange struct {
	OriginalStart int
	OriginalEnd   int
	ModifiedStart int
	ModifiedEnd   int
}

func (c LineChange) String() string {
	return fmt.Sprintf("-[%d,%d) +[%d,%d)", c.OriginalStart, c.OriginalEnd, c.ModifiedStart, c.ModifiedEnd)
}

// IsInsertion reports whether the change adds lines only.
func (c LineChange) IsInsertion() bool {
	return c.OriginalStart == c.OriginalEnd
}

// IsDeletion reports whether the change removes lines only.
func (c LineChange) IsDeletion() bool {
	return c.ModifiedStart == c.ModifiedEnd
}

// ToLineRanges converts selections into sorted, merged whole-line ranges.
// An empty selection covers the line the cursor sits on. Ranges that
// overlap or touch are merged.
func ToLineRanges(selections []Range, doc *document.Document) []LineRange {
	if len(selections) == 0 {
		return nil
	}

	last := doc.LineCount() - 1
	ranges := make([]LineRange, 0, len(selections))
	for _, s := range selections {
		start, end := s.Start.Line, s.End.Line
		if start > end {
			start, end = end, start
		}
		start = clamp(start, 0, last)
		end = clamp(end, 0, last)
		ranges = append(ranges, LineRange{Start: start, End: end + 1})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	merged := ranges[:1]
	for _, r := range ranges[1:] {
		top := &merged[len(merged)-1]
		if r.Start <= top.End {
			if r.End > top.End {
				top.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}

	return merged
}

// IntersectDiffWithRange clips change to the part of its modified span
// covered by r. It reports false when the two are disjoint.
//
// A pure deletion has no modified lines to clip; it is kept whole when
// either line it sits between lies inside r. The original span is never clipped,
// so a partially selected replacement swaps the whole original block for
// the selected modified lines.
func IntersectDiffWithRange(doc *document.Document, change LineChange, r LineRange) (LineChange, bool) {
	if change.IsDeletion() {
		last := doc.LineCount() - 1
		above := clamp(change.ModifiedStart-1, 0, last)
		below := clamp(change.ModifiedStart, 0, last)
		return change, r.Contains(above) || r.Contains(below)
	}

	start := max(change.ModifiedStart, r.Start)
	end := min(change.ModifiedEnd, r.End)
	if start >= end {
		return LineChange{}, false
	}

	clipped := change
	clipped.ModifiedStart = start
	clipped.ModifiedEnd = end
	return clipped, true
}

// SelectChanges returns, in order, every change that intersects one of
// ranges, clipped by the first range it intersects.
func SelectChanges(doc *document.Document, changes []LineChange, ranges []LineRange) []LineChange {
	var selected []LineChange
	for _, c := range changes {
		for _, r := range ranges {
			if clipped, ok := IntersectDiffWithRange(doc, c, r); ok {
				selected = append(selected, clipped)
				break
			}
		}
	}
	return selected
}

// ExcludeChanges returns the changes that intersect none of ranges.
func ExcludeChanges(doc *document.Document, changes []LineChange, ranges []LineRange) []LineChange {
	var kept []LineChange
	for _, c := range changes {
		hit := false
		for _, r := range ranges {
			if _, ok := IntersectDiffWithRange(doc, c, r); ok {
				hit = true
				break
			}
		}
		if !hit {
			kept = append(kept, c)
		}
	}
	return kept
}

// InvertLineChange swaps the original and modified sides.
func InvertLineChange(c LineChange) LineChange {
	return LineChange{
		OriginalStart: c.ModifiedStart,
		OriginalEnd:   c.ModifiedEnd,
		ModifiedStart: c.OriginalStart,
		ModifiedEnd:   c.OriginalEnd,
	}
}

// InvertLineChanges inverts every change, keeping order.
func InvertLineChanges(changes []LineChange) []LineChange {
	out := make([]LineChange, len(changes))
	for i, c := range changes {
		out[i] = InvertLineChange(c)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
