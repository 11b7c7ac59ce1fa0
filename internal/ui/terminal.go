package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
)

// Terminal prompts on an interactive terminal.
type Terminal struct {
	out    io.Writer
	render *Renderer
}

// NewTerminal returns a prompter writing messages to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, render: NewRenderer(out)}
}

func (t *Terminal) Input(ctx context.Context, opts InputOptions) (string, error) {
	value := opts.Value
	field := huh.NewInput().
		Title(opts.Title).
		Placeholder(opts.Placeholder).
		Value(&value)
	if opts.Validate != nil {
		field = field.Validate(opts.Validate)
	}
	if err := run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

func (t *Terminal) Pick(ctx context.Context, title string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, ErrCancelled
	}

	options := make([]huh.Option[int], len(items))
	for i, item := range items {
		label := item.Label
		if item.Description != "" {
			label += "  " + t.render.Muted.Render(item.Description)
		}
		options[i] = huh.NewOption(label, i)
	}

	var picked int
	field := huh.NewSelect[int]().Title(title).Options(options...).Value(&picked)
	if err := run(ctx, field); err != nil {
		return Item{}, err
	}
	return items[picked], nil
}

func (t *Terminal) Info(ctx context.Context, message string, choices ...string) (string, error) {
	return t.show(ctx, t.render.Title.Render(message), choices)
}

func (t *Terminal) Warn(ctx context.Context, message string, choices ...string) (string, error) {
	return t.show(ctx, t.render.Warning.Render(message), choices)
}

func (t *Terminal) Error(ctx context.Context, message string, choices ...string) (string, error) {
	return t.show(ctx, t.render.Failure.Render(message), choices)
}

func (t *Terminal) show(ctx context.Context, message string, choices []string) (string, error) {
	if len(choices) == 0 {
		fmt.Fprintln(t.out, message)
		return "", nil
	}

	options := huh.NewOptions(choices...)
	var choice string
	field := huh.NewSelect[string]().Title(message).Options(options...).Value(&choice)
	if err := run(ctx, field); err != nil {
		return "", err
	}
	return choice, nil
}

// run shows a single field as a form, mapping an abort to ErrCancelled.
func run(ctx context.Context, field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
	switch {
	case errors.Is(err, huh.ErrUserAborted), errors.Is(err, context.Canceled):
		return ErrCancelled
	case err != nil:
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}
