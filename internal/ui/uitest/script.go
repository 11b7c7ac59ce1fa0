// Package uitest provides a scripted ui.Prompter for tests.
package uitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mschirtzinger/stagehand/internal/ui"
)

// Cancel, used as an answer, makes the prompt return ui.ErrCancelled.
const Cancel = "\x00cancel"

// Prompt records one prompt shown to the user.
type Prompt struct {
	Kind    string // input, pick, info, warn or error
	Message string
	Choices []string
}

// Script answers prompts from a fixed list, in order. Messages without
// choices do not consume an answer. Running out of answers cancels.
type Script struct {
	mu      sync.Mutex
	answers []string
	prompts []Prompt
}

// New returns a script that gives answers in order. Pick answers are
// matched against item labels.
func New(answers ...string) *Script {
	return &Script{answers: answers}
}

// Prompts returns every prompt shown so far.
func (s *Script) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}

// Remaining returns the answers not consumed yet.
func (s *Script) Remaining() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.answers...)
}

func (s *Script) next(p Prompt, consume bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if !consume {
		return "", nil
	}
	if len(s.answers) == 0 {
		return "", ui.ErrCancelled
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if a == Cancel {
		return "", ui.ErrCancelled
	}
	return a, nil
}

func (s *Script) Input(ctx context.Context, opts ui.InputOptions) (string, error) {
	a, err := s.next(Prompt{Kind: "input", Message: opts.Title}, true)
	if err != nil {
		return "", err
	}
	if opts.Validate != nil {
		if err := opts.Validate(a); err != nil {
			return "", fmt.Errorf("scripted input %q rejected: %w", a, err)
		}
	}
	return a, nil
}

func (s *Script) Pick(ctx context.Context, title string, items []ui.Item) (ui.Item, error) {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	a, err := s.next(Prompt{Kind: "pick", Message: title, Choices: labels}, true)
	if err != nil {
		return ui.Item{}, err
	}
	for _, item := range items {
		if item.Label == a {
			return item, nil
		}
	}
	return ui.Item{}, fmt.Errorf("scripted pick %q not among %v", a, labels)
}

func (s *Script) Info(ctx context.Context, message string, choices ...string) (string, error) {
	return s.show("info", message, choices)
}

func (s *Script) Warn(ctx context.Context, message string, choices ...string) (string, error) {
	return s.show("warn", message, choices)
}

func (s *Script) Error(ctx context.Context, message string, choices ...string) (string, error) {
	return s.show("error", message, choices)
}

func (s *Script) show(kind, message string, choices []string) (string, error) {
	return s.next(Prompt{Kind: kind, Message: message, Choices: choices}, len(choices) > 0)
}
