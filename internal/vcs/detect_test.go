package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := Detect(nested)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}

	if result.Type != TypeGit {
		t.Errorf("Type = %v, want %v", result.Type, TypeGit)
	}
	if result.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", result.RepoRoot, root)
	}
	if result.IsWorktree {
		t.Error("IsWorktree = true for a regular repository")
	}
}

func TestDetectWorktree(t *testing.T) {
	main := t.TempDir()
	gitDir := filepath.Join(main, ".git", "worktrees", "feature")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatal(err)
	}

	wt := t.TempDir()
	if err := os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: "+gitDir+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Detect(wt)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}

	if !result.IsWorktree {
		t.Error("IsWorktree = false, want true")
	}
	if result.RepoRoot != wt {
		t.Errorf("RepoRoot = %q, want %q", result.RepoRoot, wt)
	}
	if result.MainRepoRoot != main {
		t.Errorf("MainRepoRoot = %q, want %q", result.MainRepoRoot, main)
	}
	if result.VCSDir != gitDir {
		t.Errorf("VCSDir = %q, want %q", result.VCSDir, gitDir)
	}
}

func TestDetectNotInVCS(t *testing.T) {
	dir := t.TempDir()

	// TempDir may itself live inside a repository on developer machines
	if _, err := Detect(filepath.Dir(dir)); err == nil {
		t.Skip("temp directory is inside a repository")
	}

	if _, err := Detect(dir); !errors.Is(err, ErrNotInVCS) {
		t.Errorf("Detect() error = %v, want ErrNotInVCS", err)
	}
}
