package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Head returns the current branch with its upstream, or a detached
// commit. Returns nil when HEAD cannot be resolved at all.
func (g *Git) Head(ctx context.Context) (*vcs.Branch, error) {
	head := &vcs.Branch{Ref: vcs.Ref{Type: vcs.RefHead}}

	if output, err := g.run(ctx, nil, "symbolic-ref", "--short", "-q", "HEAD"); err == nil {
		head.Name = strings.TrimSpace(string(output))
	}

	// An unborn branch has a name but no commit
	if output, err := g.run(ctx, nil, "rev-parse", "--verify", "-q", "HEAD"); err == nil {
		head.Commit = strings.TrimSpace(string(output))
	}

	if head.Name == "" && head.Commit == "" {
		return nil, nil
	}
	if head.Name == "" {
		return head, nil
	}

	head.Upstream = g.upstream(ctx, head.Name)
	if head.Upstream != nil && head.Commit != "" {
		output, err := g.run(ctx, nil, "rev-list", "--left-right", "--count", "HEAD...@{u}")
		if err == nil {
			head.Ahead, head.Behind = parseAheadBehind(output)
		}
	}

	return head, nil
}

// upstream reads branch.<name>.remote and branch.<name>.merge
func (g *Git) upstream(ctx context.Context, branch string) *vcs.UpstreamRef {
	remote, err := g.run(ctx, nil, "config", "--get", "branch."+branch+".remote")
	if err != nil {
		return nil
	}
	merge, err := g.run(ctx, nil, "config", "--get", "branch."+branch+".merge")
	if err != nil {
		return nil
	}

	return &vcs.UpstreamRef{
		Remote: strings.TrimSpace(string(remote)),
		Name:   strings.TrimPrefix(strings.TrimSpace(string(merge)), "refs/heads/"),
	}
}

func parseAheadBehind(output []byte) (ahead, behind int) {
	fields := strings.Fields(string(output))
	if len(fields) != 2 {
		return 0, 0
	}
	ahead, _ = strconv.Atoi(fields[0])
	behind, _ = strconv.Atoi(fields[1])
	return ahead, behind
}

// Refs returns local branches, remote-tracking branches and tags.
func (g *Git) Refs(ctx context.Context) ([]vcs.Ref, error) {
	output, err := g.run(ctx, nil, "for-each-ref", "--format=%(refname) %(objectname)",
		"refs/heads", "refs/remotes", "refs/tags")
	if err != nil {
		return nil, err
	}
	return parseRefs(output), nil
}

func parseRefs(output []byte) []vcs.Ref {
	var refs []vcs.Ref

	for _, line := range vcs.ParseLines(output) {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		name, commit := parts[0], parts[1]

		switch {
		case strings.HasPrefix(name, "refs/heads/"):
			refs = append(refs, vcs.Ref{Type: vcs.RefHead, Name: strings.TrimPrefix(name, "refs/heads/"), Commit: commit})
		case strings.HasPrefix(name, "refs/remotes/"):
			short := strings.TrimPrefix(name, "refs/remotes/")
			remote, _, _ := strings.Cut(short, "/")
			if strings.HasSuffix(short, "/HEAD") {
				continue
			}
			refs = append(refs, vcs.Ref{Type: vcs.RefRemoteHead, Name: short, Commit: commit, Remote: remote})
		case strings.HasPrefix(name, "refs/tags/"):
			refs = append(refs, vcs.Ref{Type: vcs.RefTag, Name: strings.TrimPrefix(name, "refs/tags/"), Commit: commit})
		}
	}

	return refs
}

// Checkout switches branches, or restores paths from treeish
func (g *Git) Checkout(ctx context.Context, treeish string, paths []string) error {
	args := []string{"checkout", "-q"}

	if len(paths) == 0 {
		_, err := g.run(ctx, nil, append(args, treeish)...)
		return err
	}

	rel, err := g.relAll(paths)
	if err != nil {
		return err
	}
	if treeish != "" {
		args = append(args, treeish)
	}
	args = append(args, "--")
	_, err = g.run(ctx, nil, append(args, rel...)...)
	return err
}

// Branch creates a branch at HEAD
func (g *Git) Branch(ctx context.Context, name string, checkout bool) error {
	args := []string{"branch", name}
	if checkout {
		args = []string{"checkout", "-q", "-b", name}
	}
	_, err := g.run(ctx, nil, args...)
	return err
}

// DeleteBranch deletes a local branch
func (g *Git) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, nil, "branch", flag, name)
	return err
}

// Merge merges ref into HEAD
func (g *Git) Merge(ctx context.Context, ref string) error {
	_, err := g.run(ctx, nil, "merge", ref)
	return err
}

// Tag creates a lightweight or annotated tag at HEAD
func (g *Git) Tag(ctx context.Context, name, message string) error {
	args := []string{"tag", name}
	if message != "" {
		args = []string{"tag", "-a", name, "-m", message}
	}
	_, err := g.run(ctx, nil, args...)
	return err
}
