package git

import (
	"context"
	"errors"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Add stages paths. An empty slice stages every change.
func (g *Git) Add(ctx context.Context, paths []string) error {
	args := []string{"add", "-A", "--"}

	rel, err := g.relAll(paths)
	if err != nil {
		return err
	}

	_, err = g.run(ctx, nil, append(args, rel...)...)
	return err
}

// Revert resets the index entries of paths to treeish. In a repository
// without commits the entries are removed from the index instead.
func (g *Git) Revert(ctx context.Context, treeish string, paths []string) error {
	if treeish == "" {
		treeish = "HEAD"
	}

	rel, err := g.relAll(paths)
	if err != nil {
		return err
	}

	if _, err := g.run(ctx, nil, "rev-parse", "--verify", "-q", treeish); err != nil {
		args := append([]string{"rm", "--cached", "-r", "-q", "--"}, rel...)
		_, err = g.run(ctx, nil, args...)
		return err
	}

	args := append([]string{"reset", "-q", treeish, "--"}, rel...)
	_, err = g.run(ctx, nil, args...)
	return err
}

// Clean removes untracked paths from the working tree
func (g *Git) Clean(ctx context.Context, paths []string) error {
	rel, err := g.relAll(paths)
	if err != nil {
		return err
	}

	args := append([]string{"clean", "-f", "-q", "--"}, rel...)
	_, err = g.run(ctx, nil, args...)
	return err
}

// Show returns the contents of path at ref; an empty ref reads the index
func (g *Git) Show(ctx context.Context, ref, path string) (string, error) {
	rel, err := g.rel(path)
	if err != nil {
		return "", err
	}

	output, err := g.run(ctx, nil, "show", ref+":"+rel)
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// StageContent writes contents into the object database and points the
// index entry of path at it, keeping the existing file mode.
func (g *Git) StageContent(ctx context.Context, path, contents string) error {
	rel, err := g.rel(path)
	if err != nil {
		return err
	}

	mode := "100644"
	if output, err := g.run(ctx, nil, "ls-files", "--stage", "--", rel); err == nil {
		if fields := strings.Fields(string(output)); len(fields) > 0 {
			mode = fields[0]
		}
	}

	output, err := g.run(ctx, strings.NewReader(contents), "hash-object", "--stdin", "-w", "--path", rel)
	if err != nil {
		return err
	}
	hash := strings.TrimSpace(string(output))

	_, err = g.run(ctx, nil, "update-index", "--add", "--cacheinfo", mode+","+hash+","+rel)
	return err
}

// Diff returns the zero-context diff of path
func (g *Git) Diff(ctx context.Context, path string, cached bool) ([]byte, error) {
	rel, err := g.rel(path)
	if err != nil {
		return nil, err
	}

	args := []string{"diff", "--no-color", "--no-ext-diff", "-U0"}
	if cached {
		args = append(args, "--cached")
	}
	return g.run(ctx, nil, append(args, "--", rel)...)
}

// CheckIgnore returns the subset of paths matched by ignore rules. Keys of
// the result are the paths exactly as passed in.
func (g *Git) CheckIgnore(ctx context.Context, paths []string) (map[string]struct{}, error) {
	ignored := make(map[string]struct{})
	if len(paths) == 0 {
		return ignored, nil
	}

	byRel := make(map[string]string, len(paths))
	var stdin strings.Builder
	for _, p := range paths {
		r, err := g.rel(p)
		if err != nil {
			return nil, err
		}
		byRel[r] = p
		stdin.WriteString(r)
		stdin.WriteByte(0)
	}

	output, err := g.run(ctx, strings.NewReader(stdin.String()), "check-ignore", "-z", "--stdin")
	if err != nil {
		// Exit status 1 means none of the paths are ignored
		var e *vcs.Error
		if errors.As(err, &e) && e.ExitCode == 1 {
			return ignored, nil
		}
		return nil, err
	}

	for _, r := range vcs.ParseNul(output) {
		if p, ok := byRel[r]; ok {
			ignored[p] = struct{}{}
		}
	}

	return ignored, nil
}
