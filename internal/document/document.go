// Package document provides text documents addressed by line and an
// afero-backed store that opens and saves them.
//
// A document's lines are the text split after every "\n", so the line
// count is always one more than the number of newlines: "a\nb" and
// "a\nb\n" have two and three lines respectively, the latter ending in an
// empty line. Line changes computed against documents use the same model.
package document

import "strings"

// Document is an in-memory text buffer.
type Document struct {
	uri   string
	text  string
	lines []string
	dirty bool
}

// New creates a document for uri holding text.
func New(uri, text string) *Document {
	d := &Document{uri: uri}
	d.set(text)
	return d
}

func (d *Document) set(text string) {
	d.text = text
	d.lines = strings.SplitAfter(text, "\n")
}

// URI returns the identifier the document was opened with.
func (d *Document) URI() string { return d.uri }

// Text returns the full text.
func (d *Document) Text() string { return d.text }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns line i without its line terminator.
func (d *Document) Line(i int) string {
	return strings.TrimRight(d.lines[i], "\r\n")
}

// Span returns lines [start, end) verbatim, terminators included.
func (d *Document) Span(start, end int) string {
	return strings.Join(d.lines[start:end], "")
}

// EndsWithEOL reports whether the last line is terminated, which is the
// case for empty documents too.
func (d *Document) EndsWithEOL() bool {
	return d.lines[len(d.lines)-1] == ""
}

// EOL returns the terminator of line i, "" for the last line.
func (d *Document) EOL(i int) string {
	l := d.lines[i]
	switch {
	case strings.HasSuffix(l, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(l, "\n"):
		return "\n"
	}
	return ""
}

// Replace swaps the whole text and marks the document dirty.
func (d *Document) Replace(text string) {
	if text == d.text {
		return
	}
	d.set(text)
	d.dirty = true
}

// IsDirty reports whether the document has unsaved changes.
func (d *Document) IsDirty() bool { return d.dirty }
