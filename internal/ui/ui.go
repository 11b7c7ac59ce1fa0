// Package ui is how commands talk to the user: input boxes, pick lists and
// modal messages with optional choices.
//
// Every prompt returns ErrCancelled when the user dismisses it. Commands
// treat that as a silent abort.
package ui

import (
	"context"
	"errors"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("cancelled")

// Item is one entry of a pick list.
type Item struct {
	Label       string
	Description string
	Value       string
}

// InputOptions configures an input box.
type InputOptions struct {
	Title       string
	Placeholder string

	// Value is the initial text.
	Value string

	// Validate rejects a value with a message; nil accepts everything.
	Validate func(string) error
}

// Prompter asks the user things.
type Prompter interface {
	// Input asks for a line of text.
	Input(ctx context.Context, opts InputOptions) (string, error)

	// Pick asks the user to choose one of items.
	Pick(ctx context.Context, title string, items []Item) (Item, error)

	// Info, Warn and Error show a message. With choices they are modal and
	// return the chosen one; without they return "" immediately.
	Info(ctx context.Context, message string, choices ...string) (string, error)
	Warn(ctx context.Context, message string, choices ...string) (string, error)
	Error(ctx context.Context, message string, choices ...string) (string, error)
}
