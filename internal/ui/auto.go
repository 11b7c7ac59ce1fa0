package ui

import (
	"context"
	"fmt"
	"io"
)

// Auto answers every prompt without asking: inputs take their initial
// value, picks and messages take the first choice. It backs --yes and
// non-interactive runs.
type Auto struct {
	out io.Writer
}

// NewAuto returns a prompter that logs messages to out.
func NewAuto(out io.Writer) *Auto {
	return &Auto{out: out}
}

func (a *Auto) Input(ctx context.Context, opts InputOptions) (string, error) {
	if opts.Validate != nil {
		if err := opts.Validate(opts.Value); err != nil {
			return "", ErrCancelled
		}
	}
	return opts.Value, nil
}

func (a *Auto) Pick(ctx context.Context, title string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, ErrCancelled
	}
	return items[0], nil
}

func (a *Auto) Info(ctx context.Context, message string, choices ...string) (string, error) {
	return a.show("info", message, choices)
}

func (a *Auto) Warn(ctx context.Context, message string, choices ...string) (string, error) {
	return a.show("warning", message, choices)
}

func (a *Auto) Error(ctx context.Context, message string, choices ...string) (string, error) {
	return a.show("error", message, choices)
}

func (a *Auto) show(kind, message string, choices []string) (string, error) {
	fmt.Fprintf(a.out, "%s: %s\n", kind, message)
	if len(choices) == 0 {
		return "", nil
	}
	return choices[0], nil
}
