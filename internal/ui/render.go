package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// decorationColors maps decoration colour tokens to terminal colours.
var decorationColors = map[string]lipgloss.AdaptiveColor{
	"gitDecoration.modifiedResourceForeground":    {Light: "#895503", Dark: "#E2C08D"},
	"gitDecoration.deletedResourceForeground":     {Light: "#AD0707", Dark: "#C74E39"},
	"gitDecoration.untrackedResourceForeground":   {Light: "#007100", Dark: "#73C991"},
	"gitDecoration.ignoredResourceForeground":     {Light: "#8E8E90", Dark: "#8C8C8C"},
	"gitDecoration.conflictingResourceForeground": {Light: "#AD0707", Dark: "#E4676B"},
}

// Renderer styles output for one writer.
type Renderer struct {
	r *lipgloss.Renderer

	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
}

// NewRenderer returns a renderer for w. Colours are dropped when w is not
// a terminal.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	if f, ok := w.(*os.File); !ok || !IsTerminal(f) {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		r:       r,
		Title:   r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8C8C8C"}),
		Success: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007100", Dark: "#73C991"}),
		Warning: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#895503", Dark: "#E2C08D"}).Bold(true),
		Failure: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AD0707", Dark: "#E4676B"}).Bold(true),
	}
}

// Decoration styles a status letter with its decoration colour token.
func (r *Renderer) Decoration(letter, color string, strikeThrough, faded bool) string {
	s := r.r.NewStyle()
	if c, ok := decorationColors[color]; ok {
		s = s.Foreground(c)
	}
	if strikeThrough {
		s = s.Strikethrough(true)
	}
	if faded {
		s = s.Faint(true)
	}
	return s.Render(letter)
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
