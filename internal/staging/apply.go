package staging

import (
	"fmt"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/document"
)

// InvariantError reports changes that cannot be applied because they are
// out of order, overlapping or out of bounds. It is raised with panic.
type InvariantError struct {
	Change LineChange
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("staging: line change %s: %s", e.Change, e.Reason)
}

// ApplyLineChanges rebuilds original with changes applied, taking every
// changed span from modified and everything else from original.
//
// changes must be sorted by OriginalStart and must not overlap; violating
// that is a programming error and panics with *InvariantError.
func ApplyLineChanges(original, modified *document.Document, changes []LineChange) string {
	var b strings.Builder
	cur := 0

	for _, c := range changes {
		switch {
		case c.OriginalStart < cur:
			panic(&InvariantError{Change: c, Reason: fmt.Sprintf("starts before line %d", cur)})
		case c.OriginalEnd < c.OriginalStart || c.ModifiedEnd < c.ModifiedStart:
			panic(&InvariantError{Change: c, Reason: "has a negative span"})
		case c.OriginalEnd > original.LineCount():
			panic(&InvariantError{Change: c, Reason: fmt.Sprintf("exceeds %d original lines", original.LineCount())})
		case c.ModifiedEnd > modified.LineCount():
			panic(&InvariantError{Change: c, Reason: fmt.Sprintf("exceeds %d modified lines", modified.LineCount())})
		}

		b.WriteString(original.Span(cur, c.OriginalStart))

		// Appending after an unterminated last line needs the terminator
		// that line carries on the modified side.
		if c.IsInsertion() && c.OriginalStart == original.LineCount() && !original.EndsWithEOL() && c.ModifiedStart > 0 {
			b.WriteString(modified.EOL(c.ModifiedStart - 1))
		}

		b.WriteString(modified.Span(c.ModifiedStart, c.ModifiedEnd))
		cur = c.OriginalEnd
	}

	b.WriteString(original.Span(cur, original.LineCount()))
	return b.String()
}
