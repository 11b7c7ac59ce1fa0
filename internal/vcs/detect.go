package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DetectionResult contains information about the detected repository
type DetectionResult struct {
	// Type is the detected VCS type
	Type Type

	// RepoRoot is the repository root directory path
	RepoRoot string

	// VCSDir is the VCS metadata directory path
	VCSDir string

	// IsWorktree indicates this is a git worktree (not main repo)
	IsWorktree bool

	// MainRepoRoot is the main repo root (different from RepoRoot for worktrees)
	MainRepoRoot string
}

// Detect finds the repository enclosing path.
//
// Detection walks up parent directories looking for a .git directory (a
// regular repository) or a .git file (a linked worktree or submodule)
// until one is found or the filesystem root is reached.
//
// Returns ErrNotInVCS if no repository is found.
func Detect(path string) (*DetectionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	current := absPath
	for {
		gitPath := filepath.Join(current, ".git")

		if info, err := os.Stat(gitPath); err == nil {
			result := &DetectionResult{
				Type:         TypeGit,
				RepoRoot:     current,
				VCSDir:       gitPath,
				MainRepoRoot: current,
			}

			if info.Mode().IsRegular() {
				// .git is a file - this is a worktree
				result.IsWorktree = true
				result.MainRepoRoot, result.VCSDir = resolveGitWorktreeRoot(current, gitPath)
			}

			return result, nil
		}

		// Move to parent directory
		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root without finding VCS
			return nil, ErrNotInVCS
		}
		current = parent
	}
}

// resolveGitWorktreeRoot resolves the main repository root from a worktree's .git file.
// Returns (mainRepoRoot, worktreeGitDir).
//
// Git worktrees have a .git file (not directory) containing:
//
//	gitdir: /path/to/main/.git/worktrees/worktree-name
func resolveGitWorktreeRoot(worktreePath, gitFile string) (string, string) {
	content, err := os.ReadFile(gitFile)
	if err != nil {
		return worktreePath, gitFile
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, "gitdir: ") {
		return worktreePath, gitFile
	}

	gitDir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(worktreePath, gitDir)
	}
	gitDir = filepath.Clean(gitDir)

	// gitdir points to: /main/.git/worktrees/name
	if idx := strings.Index(gitDir, string(filepath.Separator)+"worktrees"+string(filepath.Separator)); idx > 0 {
		return filepath.Dir(gitDir[:idx]), gitDir
	}

	// Submodules point into /super/.git/modules/name and are their own root
	return worktreePath, gitDir
}

// IsGitAvailable checks if the git command is available on the system
func IsGitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// DetectWithAvailability performs detection and checks binary availability.
// Returns ErrVCSNotAvailable if the git binary cannot be found.
func DetectWithAvailability(path string) (*DetectionResult, error) {
	result, err := Detect(path)
	if err != nil {
		return nil, err
	}

	if result.Type == TypeGit && !IsGitAvailable() {
		return nil, ErrVCSNotAvailable
	}

	return result, nil
}
