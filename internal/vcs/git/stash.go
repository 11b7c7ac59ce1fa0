package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

var stashLine = regexp.MustCompile(`^stash@\{(\d+)\}: ?(.*)$`)

// CreateStash stashes working tree changes. git reports a clean tree on
// stdout with a zero exit status, which is surfaced as ErrNoLocalChanges.
func (g *Git) CreateStash(ctx context.Context, message string, includeUntracked bool) error {
	var args []string
	if g.SupportsVersion("2.13.2") {
		args = []string{"stash", "push"}
		if includeUntracked {
			args = append(args, "-u")
		}
		if message != "" {
			args = append(args, "-m", message)
		}
	} else {
		args = []string{"stash", "save"}
		if includeUntracked {
			args = append(args, "-u")
		}
		if message != "" {
			args = append(args, message)
		}
	}

	output, err := g.run(ctx, nil, args...)
	if err != nil {
		return err
	}
	if strings.Contains(string(output), "No local changes to save") {
		return &vcs.Error{Op: "git stash", Args: args, Code: vcs.CodeNoLocalChanges, Stderr: string(output)}
	}
	return nil
}

// PopStash applies and drops stash@{index}, restoring the index as well
func (g *Git) PopStash(ctx context.Context, index int) error {
	_, err := g.run(ctx, nil, "stash", "pop", "--index", fmt.Sprintf("stash@{%d}", index))
	var e *vcs.Error
	if errors.As(err, &e) && e.Code == vcs.CodeConflict {
		e.Code = vcs.CodeStashConflict
	}
	return err
}

// GetStashes lists stashes, most recent first
func (g *Git) GetStashes(ctx context.Context) ([]vcs.Stash, error) {
	output, err := g.run(ctx, nil, "stash", "list")
	if err != nil {
		return nil, err
	}
	return parseStashes(output), nil
}

func parseStashes(output []byte) []vcs.Stash {
	var stashes []vcs.Stash
	for _, line := range vcs.ParseLines(output) {
		m := stashLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, _ := strconv.Atoi(m[1])
		stashes = append(stashes, vcs.Stash{Index: index, Description: m[2]})
	}
	return stashes
}
