package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// detect populates git repository information
func (g *Git) detect(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Use git rev-parse to get all info in one call
	cmd := exec.Command("git", "rev-parse", "--git-dir", "--git-common-dir", "--show-toplevel")
	cmd.Dir = absPath

	output, err := cmd.Output()
	if err != nil {
		return vcs.ErrNotInVCS
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) < 3 {
		return fmt.Errorf("unexpected git rev-parse output: got %d lines, expected 3", len(lines))
	}

	gitDir := strings.TrimSpace(lines[0])
	commonDir := strings.TrimSpace(lines[1])
	repoRoot := strings.TrimSpace(lines[2])

	// Convert to absolute paths
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(absPath, gitDir)
	}
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(absPath, commonDir)
	}

	g.vcsDir = gitDir
	g.repoRoot = normalizeRepoRoot(repoRoot)

	// Detect worktree by comparing git-dir and common-dir
	absGitDir, _ := filepath.Abs(gitDir)
	absCommonDir, _ := filepath.Abs(commonDir)
	g.isWorktree = absGitDir != absCommonDir

	if g.isWorktree {
		g.mainRepoRoot = filepath.Dir(absCommonDir)
	} else {
		g.mainRepoRoot = g.repoRoot
	}

	return nil
}

// normalizeRepoRoot normalizes the repository root path
// Resolves symlinks so that registry lookups compare canonical paths
func normalizeRepoRoot(path string) string {
	path = filepath.FromSlash(path)

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	return path
}

// Status returns the porcelain status of the working tree, including
// every untracked file.
func (g *Git) Status(ctx context.Context) ([]vcs.FileStatus, error) {
	output, err := g.run(ctx, nil, "status", "--porcelain", "-z", "-uall")
	if err != nil {
		return nil, err
	}
	return parseStatus(output), nil
}

// parseStatus parses "XY path\0" entries. Renames and copies carry the
// source path in the following field.
func parseStatus(output []byte) []vcs.FileStatus {
	fields := vcs.ParseNul(output)
	result := make([]vcs.FileStatus, 0, len(fields))

	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}

		fs := vcs.FileStatus{
			StagedCode: vcs.StatusCode(entry[0:1]),
			Status:     vcs.StatusCode(entry[1:2]),
			Path:       entry[3:],
		}

		if entry[0] == 'R' || entry[0] == 'C' {
			i++
			if i < len(fields) {
				fs.OrigPath = fields[i]
			}
		}

		result = append(result, fs)
	}

	return result
}

// Remotes returns information about configured remotes
func (g *Git) Remotes(ctx context.Context) ([]vcs.Remote, error) {
	output, err := g.run(ctx, nil, "remote", "-v")
	if err != nil {
		return nil, err
	}
	return parseRemotes(output), nil
}

// parseRemotes parses "origin url (fetch)" lines
func parseRemotes(output []byte) []vcs.Remote {
	byName := make(map[string]*vcs.Remote)

	for _, line := range vcs.ParseLines(output) {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		name, url := parts[0], parts[1]
		r, ok := byName[name]
		if !ok {
			r = &vcs.Remote{Name: name}
			byName[name] = r
		}

		switch {
		case len(parts) >= 3 && strings.Contains(parts[2], "push"):
			r.PushURL = url
		default:
			r.FetchURL = url
		}
	}

	result := make([]vcs.Remote, 0, len(byName))
	for _, r := range byName {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result
}
