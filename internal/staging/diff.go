package staging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aymanbagabas/go-udiff"
	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// ComputeLineChanges diffs two texts line by line. Lines are compared
// whole, so an unchanged line is never part of a change and changes that
// are separated by unchanged lines stay separate.
func ComputeLineChanges(original, modified string) ([]LineChange, error) {
	if original == modified {
		return nil, nil
	}

	tok := lineTokenizer{ids: make(map[string]rune)}
	before, err := tok.encode(original)
	if err != nil {
		return nil, fmt.Errorf("compute line changes: %w", err)
	}
	after, err := tok.encode(modified)
	if err != nil {
		return nil, fmt.Errorf("compute line changes: %w", err)
	}

	var changes []LineChange
	delta := 0
	for _, e := range udiff.Strings(before, after) {
		start, end := e.Start/tokenSize, e.End/tokenSize
		inserted := utf8.RuneCountInString(e.New)
		c := LineChange{
			OriginalStart: start,
			OriginalEnd:   end,
			ModifiedStart: start + delta,
			ModifiedEnd:   start + delta + inserted,
		}
		delta += inserted - (end - start)

		if n := len(changes); n > 0 && changes[n-1].OriginalEnd == c.OriginalStart && changes[n-1].ModifiedEnd == c.ModifiedStart {
			changes[n-1].OriginalEnd = c.OriginalEnd
			changes[n-1].ModifiedEnd = c.ModifiedEnd
			continue
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// Each distinct line is encoded as one supplementary-plane rune, which
// is always four bytes of UTF-8.
const (
	tokenBase = 0x10000
	tokenSize = 4
)

type lineTokenizer struct {
	ids map[string]rune
}

func (t *lineTokenizer) encode(text string) (string, error) {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	b.Grow(len(lines) * tokenSize)
	for _, line := range lines {
		id, ok := t.ids[line]
		if !ok {
			id = tokenBase + rune(len(t.ids))
			if id > utf8.MaxRune {
				return "", errors.New("too many distinct lines")
			}
			t.ids[line] = id
		}
		b.WriteRune(id)
	}
	return b.String(), nil
}

// ParseLineChanges extracts the line changes of the first file in a git
// diff. An empty diff yields no changes.
func ParseLineChanges(diff []byte) ([]LineChange, error) {
	if len(bytes.TrimSpace(diff)) == 0 {
		return nil, nil
	}

	files, _, err := gitdiff.Parse(bytes.NewReader(diff))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	var changes []LineChange
	for _, frag := range files[0].TextFragments {
		changes = append(changes, fragmentChanges(frag)...)
	}
	return changes, nil
}

func fragmentChanges(frag *gitdiff.TextFragment) []LineChange {
	oldLine := fragmentStart(frag.OldPosition, frag.OldLines)
	newLine := fragmentStart(frag.NewPosition, frag.NewLines)

	var (
		changes []LineChange
		cur     *LineChange
	)
	flush := func() {
		if cur != nil {
			changes = append(changes, *cur)
			cur = nil
		}
	}

	for _, l := range frag.Lines {
		if l.Op == gitdiff.OpContext {
			flush()
			oldLine++
			newLine++
			continue
		}
		if cur == nil {
			cur = &LineChange{OriginalStart: oldLine, OriginalEnd: oldLine, ModifiedStart: newLine, ModifiedEnd: newLine}
		}
		switch l.Op {
		case gitdiff.OpDelete:
			oldLine++
			cur.OriginalEnd = oldLine
		case gitdiff.OpAdd:
			newLine++
			cur.ModifiedEnd = newLine
		}
	}
	flush()
	return changes
}

// fragmentStart converts a 1-based hunk header position to a 0-based line.
// An empty side names the line the change follows, which is already the
// 0-based index of the line it precedes.
func fragmentStart(pos, lines int64) int {
	if lines == 0 {
		return int(pos)
	}
	return int(pos - 1)
}
