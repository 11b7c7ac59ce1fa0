// Package git provides a git implementation of the vcs.Backend interface.
//
// Every operation shells out to the git binary with the repository root as
// working directory. Failures are returned as *vcs.Error values whose Code
// is derived from git's diagnostic output, so callers can use errors.Is
// against the vcs sentinels.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Git implements the vcs.Backend interface for git repositories.
type Git struct {
	// repoRoot is the repository root directory path
	repoRoot string

	// vcsDir is the .git directory path (may be a file for worktrees)
	vcsDir string

	// isWorktree indicates if this is a git worktree
	isWorktree bool

	// mainRepoRoot is the main repository root (for worktrees)
	mainRepoRoot string

	// timeout bounds local commands; zero means no bound
	timeout time.Duration

	// version caches the parsed binary version ("v2.43.0")
	version string

	log zerolog.Logger
}

// Option configures a Git backend
type Option func(*Git)

// WithTimeout bounds every non-network command
func WithTimeout(d time.Duration) Option {
	return func(g *Git) {
		g.timeout = d
	}
}

// WithLogger logs every command at debug level
func WithLogger(l zerolog.Logger) Option {
	return func(g *Git) {
		g.log = l
	}
}

// New creates a new Git backend for the repository containing path.
func New(path string, opts ...Option) (*Git, error) {
	g := &Git{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.detect(path); err != nil {
		return nil, err
	}

	return g, nil
}

// Name returns the VCS type (git)
func (g *Git) Name() vcs.Type {
	return vcs.TypeGit
}

// RepoRoot returns the repository root directory path
func (g *Git) RepoRoot() string {
	return g.repoRoot
}

// VCSDir returns the .git directory path
func (g *Git) VCSDir() string {
	return g.vcsDir
}

// Version returns the git version string
func (g *Git) Version() (string, error) {
	output, err := exec.Command("git", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git version: %w", err)
	}

	// Output format: "git version 2.39.0" or "git version 2.39.3 (Apple Git-146)"
	version := strings.TrimSpace(string(output))
	version = strings.TrimPrefix(version, "git version ")

	return version, nil
}

// SupportsVersion reports whether the git binary is at least min ("2.13.2").
func (g *Git) SupportsVersion(min string) bool {
	if g.version == "" {
		raw, err := g.Version()
		if err != nil {
			return false
		}
		g.version = canonicalVersion(raw)
	}
	return semver.Compare(g.version, canonicalVersion(min)) >= 0
}

// canonicalVersion turns "2.39.3.windows.1 (Apple Git-146)" into "v2.39.3".
func canonicalVersion(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	parts := strings.Split(fields[0], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	v := "v" + strings.Join(parts, ".")
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// ===================
// Command execution
// ===================

// run executes git with args in the repository root. stdin may be nil.
func (g *Git) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	return g.runIn(ctx, g.repoRoot, stdin, args...)
}

func (g *Git) runIn(ctx context.Context, dir string, stdin io.Reader, args ...string) ([]byte, error) {
	if g.timeout > 0 && !isNetworkCommand(args) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	g.log.Debug().
		Strs("args", args).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("git")

	if err != nil {
		code := classify(stdout.String(), stderr.String())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = vcs.CodeTimeout
		}
		return stdout.Bytes(), &vcs.Error{
			Op:       "git " + args[0],
			Args:     args,
			Code:     code,
			Stderr:   stderr.String(),
			ExitCode: vcs.GetExitCode(err),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

func isNetworkCommand(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "fetch", "pull", "push":
		return true
	}
	return false
}

// rel converts an absolute path into a slash-separated path relative to
// the repository root. Relative inputs are passed through.
func (g *Git) rel(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	return vcs.RelativePath(g.repoRoot, path)
}

func (g *Git) relAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := g.rel(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Init creates an empty repository in dir.
func Init(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	g := &Git{log: zerolog.Nop()}
	_, err := g.runIn(ctx, dir, nil, "init")
	return err
}

var _ vcs.Backend = (*Git)(nil)
