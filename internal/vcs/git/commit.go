package git

import (
	"context"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Commit creates a commit from the index. The message is passed on stdin
// so it may contain anything, including an empty string.
func (g *Git) Commit(ctx context.Context, message string, opts vcs.CommitOptions) error {
	args := []string{"commit", "--quiet", "--allow-empty-message", "--file", "-"}

	if opts.All {
		args = append(args, "--all")
	}
	if opts.Amend {
		args = append(args, "--amend")
	}
	if opts.Signoff {
		args = append(args, "--signoff")
	}
	if opts.Signed {
		args = append(args, "-S")
	}
	if opts.Empty {
		args = append(args, "--allow-empty")
	}

	_, err := g.run(ctx, strings.NewReader(message), args...)
	return err
}

// Reset moves HEAD to treeish. A mixed reset keeps working tree changes.
func (g *Git) Reset(ctx context.Context, treeish string, hard bool) error {
	args := []string{"reset"}
	if hard {
		args = append(args, "--hard")
	}
	args = append(args, treeish)

	_, err := g.run(ctx, nil, args...)
	return err
}

// GetCommit returns hash, parents and message of ref
func (g *Git) GetCommit(ctx context.Context, ref string) (vcs.Commit, error) {
	output, err := g.run(ctx, nil, "show", "-s", "--format=%H%n%P%n%B", ref)
	if err != nil {
		return vcs.Commit{}, err
	}
	return parseCommit(string(output)), nil
}

func parseCommit(output string) vcs.Commit {
	lines := strings.SplitN(output, "\n", 3)

	c := vcs.Commit{}
	if len(lines) > 0 {
		c.Hash = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		c.Parents = strings.Fields(lines[1])
	}
	if len(lines) > 2 {
		c.Message = strings.TrimRight(lines[2], "\n")
	}
	return c
}
