// Package vcstest provides an in-memory vcs.Backend for tests.
package vcstest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Call records one backend invocation.
type Call struct {
	Op   string
	Args []string
}

// Fake is a scriptable in-memory vcs.Backend.
//
// State fields are set by tests through the setters; every mutating
// operation is recorded and can fail with an error registered by FailOn.
type Fake struct {
	mu sync.Mutex

	root    string
	files   []vcs.FileStatus
	head    *vcs.Branch
	refs    []vcs.Ref
	remotes []vcs.Remote
	stashes []vcs.Stash
	commits map[string]vcs.Commit
	ignored map[string]struct{}

	// contents maps ref ("" for the index) to path to file contents
	contents map[string]map[string]string
	diffs    map[string][]byte

	failures map[string]error
	calls    []Call

	// OnFetch, when set, runs instead of the default Fetch behaviour.
	OnFetch func(ctx context.Context) error

	// OnCheckIgnore, when set, is called with every CheckIgnore batch.
	OnCheckIgnore func(paths []string)
}

// New creates a fake rooted at root.
func New(root string) *Fake {
	return &Fake{
		root:     root,
		commits:  make(map[string]vcs.Commit),
		ignored:  make(map[string]struct{}),
		contents: make(map[string]map[string]string),
		diffs:    make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Register installs the fake constructor under vcs.TypeFake.
func Register(backends map[string]*Fake) {
	if vcs.IsRegistered(vcs.TypeFake) {
		return
	}
	vcs.Register(vcs.TypeFake, func(root string) (vcs.Backend, error) {
		if f, ok := backends[root]; ok {
			return f, nil
		}
		return New(root), nil
	})
}

// ===================
// Test setters
// ===================

// SetStatus replaces the porcelain status entries.
func (f *Fake) SetStatus(files ...vcs.FileStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = files
}

// SetHead sets HEAD.
func (f *Fake) SetHead(head *vcs.Branch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

// SetRefs sets the references.
func (f *Fake) SetRefs(refs ...vcs.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = refs
}

// SetRemotes sets the remotes.
func (f *Fake) SetRemotes(remotes ...vcs.Remote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remotes = remotes
}

// SetStashes sets the stash list.
func (f *Fake) SetStashes(stashes ...vcs.Stash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stashes = stashes
}

// SetCommit registers the commit returned for ref.
func (f *Fake) SetCommit(ref string, c vcs.Commit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[ref] = c
}

// SetIgnored marks paths as ignored.
func (f *Fake) SetIgnored(paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		f.ignored[p] = struct{}{}
	}
}

// SetContent sets the contents of path at ref ("" for the index).
func (f *Fake) SetContent(ref, path, contents string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contents[ref] == nil {
		f.contents[ref] = make(map[string]string)
	}
	f.contents[ref][path] = contents
}

// Content returns the contents of path at ref.
func (f *Fake) Content(ref, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.contents[ref][path]
	return s, ok
}

// SetDiff sets the raw diff returned for path.
func (f *Fake) SetDiff(path string, cached bool, diff []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffs[diffKey(path, cached)] = diff
}

// FailOn makes every call of op return err. A nil err clears it.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Calls returns the recorded calls, optionally filtered by op.
func (f *Fake) Calls(ops ...string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(ops) == 0 {
		return append([]Call(nil), f.calls...)
	}
	var out []Call
	for _, c := range f.calls {
		for _, op := range ops {
			if c.Op == op {
				out = append(out, c)
			}
		}
	}
	return out
}

func (f *Fake) record(op string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Args: args})
	return f.failures[op]
}

func diffKey(path string, cached bool) string {
	return fmt.Sprintf("%s|%t", path, cached)
}

// ===================
// vcs.Backend
// ===================

func (f *Fake) Name() vcs.Type           { return vcs.TypeFake }
func (f *Fake) Version() (string, error) { return "fake-1.0.0", nil }
func (f *Fake) RepoRoot() string         { return f.root }

func (f *Fake) Status(ctx context.Context) ([]vcs.FileStatus, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vcs.FileStatus(nil), f.files...), nil
}

func (f *Fake) Head(ctx context.Context) (*vcs.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.head == nil {
		return nil, nil
	}
	h := *f.head
	return &h, nil
}

func (f *Fake) Refs(ctx context.Context) ([]vcs.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vcs.Ref(nil), f.refs...), nil
}

func (f *Fake) Remotes(ctx context.Context) ([]vcs.Remote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vcs.Remote(nil), f.remotes...), nil
}

func (f *Fake) GetCommit(ctx context.Context, ref string) (vcs.Commit, error) {
	if err := f.record("getCommit", ref); err != nil {
		return vcs.Commit{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[ref]
	if !ok {
		return vcs.Commit{}, vcs.ErrRefNotFound
	}
	return c, nil
}

func (f *Fake) Add(ctx context.Context, paths []string) error {
	return f.record("add", paths...)
}

func (f *Fake) Revert(ctx context.Context, treeish string, paths []string) error {
	return f.record("revert", append([]string{treeish}, paths...)...)
}

func (f *Fake) Clean(ctx context.Context, paths []string) error {
	return f.record("clean", paths...)
}

func (f *Fake) Checkout(ctx context.Context, treeish string, paths []string) error {
	return f.record("checkout", append([]string{treeish}, paths...)...)
}

func (f *Fake) Show(ctx context.Context, ref, path string) (string, error) {
	if err := f.record("show", ref, path); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.contents[ref][path]
	if !ok {
		return "", fmt.Errorf("fake: no content for %s at %q", path, ref)
	}
	return s, nil
}

func (f *Fake) StageContent(ctx context.Context, path, contents string) error {
	if err := f.record("stageContent", path, contents); err != nil {
		return err
	}
	f.SetContent("", path, contents)
	return nil
}

func (f *Fake) Diff(ctx context.Context, path string, cached bool) ([]byte, error) {
	if err := f.record("diff", path); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.diffs[diffKey(path, cached)], nil
}

func (f *Fake) CheckIgnore(ctx context.Context, paths []string) (map[string]struct{}, error) {
	if f.OnCheckIgnore != nil {
		f.OnCheckIgnore(paths)
	}
	if err := f.record("checkIgnore", paths...); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{})
	for _, p := range paths {
		if _, ok := f.ignored[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out, nil
}

func (f *Fake) Commit(ctx context.Context, message string, opts vcs.CommitOptions) error {
	return f.record("commit", message, fmt.Sprintf("all=%t amend=%t signoff=%t signed=%t", opts.All, opts.Amend, opts.Signoff, opts.Signed))
}

func (f *Fake) Reset(ctx context.Context, treeish string, hard bool) error {
	return f.record("reset", treeish, fmt.Sprintf("hard=%t", hard))
}

func (f *Fake) Branch(ctx context.Context, name string, checkout bool) error {
	return f.record("branch", name, fmt.Sprintf("checkout=%t", checkout))
}

// DeleteBranch fails with the error registered for "deleteBranch" unless
// force overrides an unmerged branch.
func (f *Fake) DeleteBranch(ctx context.Context, name string, force bool) error {
	if !force {
		return f.record("deleteBranch", name)
	}
	err := f.record("deleteBranch", name, "force")
	if errors.Is(err, vcs.ErrBranchNotFullyMerged) {
		return nil
	}
	return err
}

func (f *Fake) Merge(ctx context.Context, ref string) error {
	return f.record("merge", ref)
}

func (f *Fake) Tag(ctx context.Context, name, message string) error {
	return f.record("tag", name, message)
}

func (f *Fake) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	if f.OnFetch != nil {
		f.record("fetch", opts.Remote)
		return f.OnFetch(ctx)
	}
	return f.record("fetch", opts.Remote)
}

func (f *Fake) Pull(ctx context.Context, opts vcs.PullOptions) error {
	return f.record("pull", opts.Remote, opts.Ref, fmt.Sprintf("rebase=%t", opts.Rebase))
}

func (f *Fake) Push(ctx context.Context, opts vcs.PushOptions) error {
	return f.record("push", opts.Remote, opts.Ref, fmt.Sprintf("upstream=%t tags=%t", opts.SetUpstream, opts.Tags))
}

func (f *Fake) CreateStash(ctx context.Context, message string, includeUntracked bool) error {
	return f.record("createStash", message, fmt.Sprintf("untracked=%t", includeUntracked))
}

func (f *Fake) PopStash(ctx context.Context, index int) error {
	return f.record("popStash", fmt.Sprint(index))
}

func (f *Fake) GetStashes(ctx context.Context) ([]vcs.Stash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]vcs.Stash(nil), f.stashes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

var _ vcs.Backend = (*Fake)(nil)
