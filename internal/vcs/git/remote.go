package git

import (
	"context"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// hasRemote returns true if any remote is configured
func (g *Git) hasRemote(ctx context.Context) bool {
	remotes, err := g.Remotes(ctx)
	return err == nil && len(remotes) > 0
}

// Fetch updates remote-tracking references
func (g *Git) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	if !g.hasRemote(ctx) {
		return vcs.ErrNoRemote
	}

	args := []string{"fetch"}
	if opts.Prune {
		args = append(args, "--prune")
	}

	switch {
	case opts.All:
		args = append(args, "--all")
	case opts.Remote != "":
		args = append(args, opts.Remote)
		if opts.Ref != "" {
			args = append(args, opts.Ref)
		}
	}

	_, err := g.run(ctx, nil, args...)
	return err
}

// Pull pulls changes from the remote. Without an explicit remote and ref
// git integrates the configured upstream of HEAD.
func (g *Git) Pull(ctx context.Context, opts vcs.PullOptions) error {
	if !g.hasRemote(ctx) {
		return vcs.ErrNoRemote
	}

	args := []string{"pull"}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	if opts.Remote != "" && opts.Ref != "" {
		args = append(args, opts.Remote, opts.Ref)
	}

	_, err := g.run(ctx, nil, args...)
	return err
}

// Push pushes a reference to the remote
func (g *Git) Push(ctx context.Context, opts vcs.PushOptions) error {
	if !g.hasRemote(ctx) {
		return vcs.ErrNoRemote
	}

	args := []string{"push"}
	if opts.Tags {
		args = append(args, "--follow-tags")
	}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
		if opts.Ref != "" {
			args = append(args, opts.Ref)
		}
	}

	_, err := g.run(ctx, nil, args...)
	return err
}
