// Package vcs defines the version control backend consumed by stagehand.
//
// The package abstracts the operations the change-management core needs
// from a source control system: reading working-copy status, moving paths
// in and out of the index, committing, switching references and talking to
// remotes. Backends register a constructor for their Type and are created
// through a Factory after Detect has located the repository root.
//
// # Architecture
//
// The Backend interface is deliberately operation-shaped rather than
// command-shaped:
//   - Status, Head, Refs and Remotes describe the repository state
//   - Add, Revert, Clean, Checkout and StageContent mutate the index and working tree
//   - Commit, Reset, Branch, Merge and Tag move references
//   - Fetch, Pull and Push talk to remotes
//   - CreateStash, PopStash and GetStashes manage the stash
//   - CheckIgnore answers batched ignore queries
//
// Every failing call returns an error that can be inspected with errors.Is
// against the sentinels in errors.go, or with CodeOf for the raw code.
//
// # Implementations
//
//   - internal/vcs/git: git implementation driving the git binary
//   - internal/vcs/vcstest: in-memory fake used by tests
package vcs

import "context"

// Type represents the VCS backend type
type Type string

const (
	// TypeGit indicates a git repository
	TypeGit Type = "git"

	// TypeFake indicates the in-memory test backend
	TypeFake Type = "fake"
)

// String returns the string representation of the VCS type
func (t Type) String() string {
	return string(t)
}

// Backend defines the operations stagehand performs against a repository.
// All paths are absolute unless documented otherwise; implementations
// translate them relative to RepoRoot.
type Backend interface {
	// ===================
	// Identity
	// ===================

	// Name returns the backend type
	Name() Type

	// Version returns the backend binary version string
	Version() (string, error)

	// RepoRoot returns the repository root directory path
	RepoRoot() string

	// ===================
	// State
	// ===================

	// Status returns every changed, untracked, ignored or unmerged path.
	Status(ctx context.Context) ([]FileStatus, error)

	// Head returns the checked out branch, or a detached commit reference.
	// Returns nil for a repository without commits.
	Head(ctx context.Context) (*Branch, error)

	// Refs returns local branches, remote branches and tags.
	Refs(ctx context.Context) ([]Ref, error)

	// Remotes returns the configured remotes
	Remotes(ctx context.Context) ([]Remote, error)

	// GetCommit returns the commit a reference points to
	GetCommit(ctx context.Context, ref string) (Commit, error)

	// ===================
	// Index and working tree
	// ===================

	// Add stages the given paths. An empty slice stages everything.
	Add(ctx context.Context, paths []string) error

	// Revert resets the index entries of paths to treeish (unstage).
	Revert(ctx context.Context, treeish string, paths []string) error

	// Clean deletes untracked paths from the working tree
	Clean(ctx context.Context, paths []string) error

	// Checkout switches to treeish when paths is empty, otherwise restores
	// the given paths from treeish ("" restores from the index).
	Checkout(ctx context.Context, treeish string, paths []string) error

	// Show returns the contents of path at ref. An empty ref reads the index.
	Show(ctx context.Context, ref, path string) (string, error)

	// StageContent writes contents as the index version of path without
	// touching the working tree.
	StageContent(ctx context.Context, path, contents string) error

	// Diff returns the raw zero-context unified diff of path, either
	// index against HEAD (cached) or working tree against index.
	Diff(ctx context.Context, path string, cached bool) ([]byte, error)

	// CheckIgnore returns the subset of paths matched by ignore rules.
	CheckIgnore(ctx context.Context, paths []string) (map[string]struct{}, error)

	// ===================
	// History
	// ===================

	// Commit records the index (or all tracked changes) as a new commit
	Commit(ctx context.Context, message string, opts CommitOptions) error

	// Reset moves HEAD to treeish, keeping changes unless hard is set
	Reset(ctx context.Context, treeish string, hard bool) error

	// Branch creates a branch at HEAD and optionally checks it out
	Branch(ctx context.Context, name string, checkout bool) error

	// DeleteBranch deletes a local branch. Without force, unmerged
	// branches fail with ErrBranchNotFullyMerged.
	DeleteBranch(ctx context.Context, name string, force bool) error

	// Merge merges ref into HEAD. Conflicts fail with ErrConflicts.
	Merge(ctx context.Context, ref string) error

	// Tag creates a tag at HEAD, annotated when message is non-empty
	Tag(ctx context.Context, name, message string) error

	// ===================
	// Remotes
	// ===================

	// Fetch updates remote-tracking references
	Fetch(ctx context.Context, opts FetchOptions) error

	// Pull fetches and integrates the upstream of HEAD
	Pull(ctx context.Context, opts PullOptions) error

	// Push publishes a reference to a remote
	Push(ctx context.Context, opts PushOptions) error

	// ===================
	// Stash
	// ===================

	// CreateStash stashes working tree changes
	CreateStash(ctx context.Context, message string, includeUntracked bool) error

	// PopStash applies and drops stash@{index}
	PopStash(ctx context.Context, index int) error

	// GetStashes lists stashes, most recent first
	GetStashes(ctx context.Context) ([]Stash, error)
}

// ===================
// Supporting Types
// ===================

// RefType distinguishes the kinds of references
type RefType int

const (
	// RefHead is a local branch
	RefHead RefType = iota

	// RefRemoteHead is a remote-tracking branch
	RefRemoteHead

	// RefTag is a tag
	RefTag
)

// String returns a short name for the reference type
func (t RefType) String() string {
	switch t {
	case RefHead:
		return "head"
	case RefRemoteHead:
		return "remote"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Ref contains information about a reference (branch or tag)
type Ref struct {
	// Type is the reference kind
	Type RefType

	// Name is the short reference name (e.g., "main", "origin/main", "v1.0")
	Name string

	// Commit is the commit hash the reference points to
	Commit string

	// Remote is the remote name for remote refs, empty otherwise
	Remote string
}

// UpstreamRef identifies the remote branch a local branch tracks
type UpstreamRef struct {
	// Remote is the remote name (e.g., "origin")
	Remote string

	// Name is the branch name on the remote
	Name string
}

// Branch describes HEAD: a local branch with optional upstream, or a
// detached commit when Name is empty.
type Branch struct {
	Ref

	// Upstream is the tracked remote branch, nil when none is configured
	Upstream *UpstreamRef

	// Ahead is the number of local commits missing upstream
	Ahead int

	// Behind is the number of upstream commits missing locally
	Behind int
}

// Remote contains information about a remote repository
type Remote struct {
	// Name is the remote name (e.g., "origin")
	Name string

	// FetchURL is the URL fetched from
	FetchURL string

	// PushURL is the URL pushed to
	PushURL string
}

// Stash describes a stash entry
type Stash struct {
	// Index is n in stash@{n}
	Index int

	// Description is the stash message
	Description string
}

// Commit describes a single commit
type Commit struct {
	// Hash is the full commit hash
	Hash string

	// Message is the full commit message
	Message string

	// Parents are the parent commit hashes
	Parents []string
}

// FileStatus represents one entry of porcelain status output
type FileStatus struct {
	// Path is the file path relative to repository root
	Path string

	// OrigPath is the source path of a rename or copy, relative to root
	OrigPath string

	// StagedCode is the index status (X column)
	StagedCode StatusCode

	// Status is the working tree status (Y column)
	Status StatusCode
}

// Code returns the two-letter XY status
func (f FileStatus) Code() string {
	return string(f.StagedCode) + string(f.Status)
}

// StatusCode represents file status codes
type StatusCode string

const (
	StatusUnmodified StatusCode = " " // No changes
	StatusModified   StatusCode = "M" // Modified
	StatusAdded      StatusCode = "A" // Added/new file
	StatusDeleted    StatusCode = "D" // Deleted
	StatusRenamed    StatusCode = "R" // Renamed
	StatusCopied     StatusCode = "C" // Copied
	StatusUntracked  StatusCode = "?" // Untracked
	StatusIgnored    StatusCode = "!" // Ignored
	StatusConflict   StatusCode = "U" // Unmerged/conflict
)

// CommitOptions configures a commit operation
type CommitOptions struct {
	// All stages modified and deleted tracked files before committing
	All bool

	// Amend replaces the HEAD commit
	Amend bool

	// Signoff adds a Signed-off-by trailer
	Signoff bool

	// Signed GPG-signs the commit
	Signed bool

	// Empty allows creating an empty commit
	Empty bool
}

// FetchOptions configures a fetch operation
type FetchOptions struct {
	// Remote is the remote name. Empty fetches the default remote.
	Remote string

	// Ref is the reference to fetch. Empty fetches all refs of Remote.
	Ref string

	// All fetches every remote
	All bool

	// Prune removes stale remote-tracking references
	Prune bool
}

// PullOptions configures a pull operation
type PullOptions struct {
	// Remote is the remote name. Empty uses the upstream of HEAD.
	Remote string

	// Ref is the reference to pull. Empty uses the upstream of HEAD.
	Ref string

	// Rebase uses rebase instead of merge
	Rebase bool
}

// PushOptions configures a push operation
type PushOptions struct {
	// Remote is the remote name. Empty uses the upstream of HEAD.
	Remote string

	// Ref is the reference to push. Empty uses the current branch.
	Ref string

	// SetUpstream configures the upstream tracking reference
	SetUpstream bool

	// Tags also pushes annotated tags reachable from Ref
	Tags bool

	// Force enables force push
	Force bool
}
