// Package repository models one open working copy: its resource groups,
// HEAD, references and remotes, kept current by re-reading status after
// every state-changing operation.
//
// All paths taken and returned by a Repository are absolute.
package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Operation names a repository operation.
type Operation string

const (
	OpStatus       Operation = "status"
	OpAdd          Operation = "add"
	OpRevert       Operation = "revert"
	OpClean        Operation = "clean"
	OpCommit       Operation = "commit"
	OpCheckout     Operation = "checkout"
	OpBranch       Operation = "branch"
	OpDeleteBranch Operation = "deleteBranch"
	OpMerge        Operation = "merge"
	OpTag          Operation = "tag"
	OpFetch        Operation = "fetch"
	OpPull         Operation = "pull"
	OpPush         Operation = "push"
	OpSync         Operation = "sync"
	OpStash        Operation = "stash"
	OpStage        Operation = "stage"
	OpReset        Operation = "reset"
	OpIgnore       Operation = "ignore"
	OpShow         Operation = "show"
	OpGetCommit    Operation = "getCommit"
	OpCheckIgnore  Operation = "checkIgnore"
	OpDiff         Operation = "diff"
)

// ReadOnly reports whether op leaves repository state untouched, in which
// case status is not re-read afterwards.
func (op Operation) ReadOnly() bool {
	switch op {
	case OpShow, OpGetCommit, OpCheckIgnore, OpDiff:
		return true
	}
	return false
}

// Event is delivered to observers after every operation.
type Event struct {
	Operation Operation
	Err       error
}

// Repository is an open working copy.
type Repository struct {
	root    string
	backend vcs.Backend
	fs      afero.Fs
	log     zerolog.Logger

	mu      sync.RWMutex
	head    *vcs.Branch
	refs    []vcs.Ref
	remotes []vcs.Remote
	groups  Groups

	// state guards the idle and focus signal
	state   sync.Mutex
	running int
	focused bool
	changed chan struct{}

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithFs sets the filesystem used for files the repository edits directly,
// such as .gitignore.
func WithFs(fs afero.Fs) Option {
	return func(r *Repository) { r.fs = fs }
}

// New wraps backend. The repository starts focused and with empty groups;
// call Status to populate them.
func New(backend vcs.Backend, opts ...Option) *Repository {
	r := &Repository{
		root:      backend.RepoRoot(),
		backend:   backend,
		fs:        afero.NewOsFs(),
		log:       zerolog.Nop(),
		focused:   true,
		changed:   make(chan struct{}),
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("repo", r.root).Logger()
	return r
}

// Root returns the repository root.
func (r *Repository) Root() string { return r.root }

// Backend returns the underlying version control backend.
func (r *Repository) Backend() vcs.Backend { return r.backend }

// Head returns a copy of HEAD, nil before the first commit.
func (r *Repository) Head() *vcs.Branch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.head == nil {
		return nil
	}
	h := *r.head
	return &h
}

// Refs returns the references read by the last refresh.
func (r *Repository) Refs() []vcs.Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]vcs.Ref(nil), r.refs...)
}

// Remotes returns the remotes read by the last refresh.
func (r *Repository) Remotes() []vcs.Remote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]vcs.Remote(nil), r.remotes...)
}

// Groups returns the resource groups read by the last refresh.
func (r *Repository) Groups() Groups {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Groups{
		Index:       append([]Resource(nil), r.groups.Index...),
		WorkingTree: append([]Resource(nil), r.groups.WorkingTree...),
		Merge:       append([]Resource(nil), r.groups.Merge...),
	}
}

// Subscribe registers fn to run after every operation. The returned func
// removes it.
func (r *Repository) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()

	id := r.nextObs
	r.nextObs++
	r.observers[id] = fn

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		delete(r.observers, id)
	}
}

func (r *Repository) emit(e Event) {
	r.obsMu.Lock()
	fns := make([]func(Event), 0, len(r.observers))
	for _, fn := range r.observers {
		fns = append(fns, fn)
	}
	r.obsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// ===================
// Idle and focus
// ===================

// SetFocused records whether the user is attending to this repository.
func (r *Repository) SetFocused(focused bool) {
	r.state.Lock()
	defer r.state.Unlock()
	if r.focused != focused {
		r.focused = focused
		r.broadcastLocked()
	}
}

// IsIdle reports whether no operation is running.
func (r *Repository) IsIdle() bool {
	r.state.Lock()
	defer r.state.Unlock()
	return r.running == 0
}

// WhenIdleAndFocused blocks until no operation is running and the
// repository is focused, or ctx is done.
func (r *Repository) WhenIdleAndFocused(ctx context.Context) error {
	for {
		r.state.Lock()
		if r.running == 0 && r.focused {
			r.state.Unlock()
			return nil
		}
		ch := r.changed
		r.state.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Repository) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Repository) begin() {
	r.state.Lock()
	defer r.state.Unlock()
	r.running++
	r.broadcastLocked()
}

func (r *Repository) end() {
	r.state.Lock()
	defer r.state.Unlock()
	r.running--
	r.broadcastLocked()
}

// ===================
// Operation runner
// ===================

// run executes fn as op. After a successful state-changing operation the
// resource groups, HEAD, references and remotes are re-read. A merge that
// stops on conflicts refreshes too, since it leaves the tree changed.
func (r *Repository) run(ctx context.Context, op Operation, fn func(ctx context.Context) error) error {
	r.begin()
	defer r.end()

	err := fn(ctx)
	if !op.ReadOnly() && (err == nil || errors.Is(err, vcs.ErrConflicts)) {
		if rerr := r.refresh(ctx); rerr != nil {
			r.log.Warn().Err(rerr).Str("op", string(op)).Msg("refresh after operation failed")
			if err == nil {
				err = rerr
			}
		}
	}

	if err != nil {
		r.log.Debug().Err(err).Str("op", string(op)).Msg("operation failed")
	} else {
		r.log.Debug().Str("op", string(op)).Msg("operation done")
	}

	r.emit(Event{Operation: op, Err: err})
	return err
}

func (r *Repository) refresh(ctx context.Context) error {
	var (
		files   []vcs.FileStatus
		head    *vcs.Branch
		refs    []vcs.Ref
		remotes []vcs.Remote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		files, err = r.backend.Status(gctx)
		return err
	})
	g.Go(func() (err error) {
		head, err = r.backend.Head(gctx)
		return err
	})
	g.Go(func() (err error) {
		refs, err = r.backend.Refs(gctx)
		return err
	})
	g.Go(func() (err error) {
		remotes, err = r.backend.Remotes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	groups := groupStatus(r.root, files)

	r.mu.Lock()
	r.head = head
	r.refs = refs
	r.remotes = remotes
	r.groups = groups
	r.mu.Unlock()

	r.log.Debug().
		Int("index", len(groups.Index)).
		Int("workingTree", len(groups.WorkingTree)).
		Int("merge", len(groups.Merge)).
		Msg("status refreshed")
	return nil
}
