// Package registry tracks the open repositories and resolves any path to
// the repository that owns it.
//
// The registry is an explicit object handed to the router, the decoration
// manager and the command center; there is no package-level instance.
// Repositories are only ever appended or removed, never replaced in place.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Registry is the set of open repositories. It is safe for concurrent use.
type Registry struct {
	factory  *vcs.Factory
	log      zerolog.Logger
	repoOpts []repository.Option

	mu    sync.RWMutex
	repos []*repository.Repository
	unsub map[*repository.Repository]func()

	obsMu   sync.Mutex
	onOpen  map[int]func(*repository.Repository)
	onClose map[int]func(*repository.Repository)
	nextObs int
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactory sets the backend factory used by Open.
func WithFactory(f *vcs.Factory) Option {
	return func(r *Registry) { r.factory = f }
}

// WithLogger sets the registry logger. Opened repositories inherit it.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithRepositoryOptions sets options applied to every opened repository.
func WithRepositoryOptions(opts ...repository.Option) Option {
	return func(r *Registry) { r.repoOpts = append(r.repoOpts, opts...) }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		log:     zerolog.Nop(),
		unsub:   make(map[*repository.Repository]func()),
		onOpen:  make(map[int]func(*repository.Repository)),
		onClose: make(map[int]func(*repository.Repository)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = vcs.NewFactory()
	}
	return r
}

// Open detects the repository containing path, opens it and reads its
// status. Opening a path inside an already open repository returns that
// repository.
func (r *Registry) Open(ctx context.Context, path string) (*repository.Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	backend, err := r.factory.Create(abs)
	if err != nil {
		return nil, err
	}

	if existing := r.byRoot(backend.RepoRoot()); existing != nil {
		return existing, nil
	}

	opts := append([]repository.Option{repository.WithLogger(r.log)}, r.repoOpts...)
	repo := repository.New(backend, opts...)
	if err := repo.Status(ctx); err != nil {
		r.factory.Forget(backend.RepoRoot())
		return nil, err
	}

	r.Track(repo)
	return repo, nil
}

// Track adds an already constructed repository. Tracking a repository
// whose root is already open is a no-op.
func (r *Registry) Track(repo *repository.Repository) {
	r.mu.Lock()
	for _, existing := range r.repos {
		if existing.Root() == repo.Root() {
			r.mu.Unlock()
			return
		}
	}
	r.repos = append(r.repos, repo)
	r.unsub[repo] = repo.Subscribe(func(e repository.Event) {
		if vcs.CodeOf(e.Err) == vcs.CodeNotAGitRepository {
			r.log.Warn().Str("repo", repo.Root()).Msg("repository disappeared, closing")
			r.Close(repo.Root())
		}
	})
	r.mu.Unlock()

	r.log.Info().Str("repo", repo.Root()).Msg("repository opened")
	r.notify(r.onOpen, repo)
}

// Close removes the repository rooted at root. It reports whether one was
// open.
func (r *Registry) Close(root string) bool {
	root = filepath.Clean(root)

	r.mu.Lock()
	var closed *repository.Repository
	for i, repo := range r.repos {
		if repo.Root() == root {
			closed = repo
			r.repos = append(r.repos[:i:i], r.repos[i+1:]...)
			break
		}
	}
	if closed != nil {
		if unsub := r.unsub[closed]; unsub != nil {
			unsub()
		}
		delete(r.unsub, closed)
	}
	r.mu.Unlock()

	if closed == nil {
		return false
	}
	r.factory.Forget(root)
	r.log.Info().Str("repo", root).Msg("repository closed")
	r.notify(r.onClose, closed)
	return true
}

// Get returns the repository owning path: the open repository with the
// longest root containing it. Nil when no repository owns path.
func (r *Registry) Get(path string) *repository.Repository {
	path = filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *repository.Repository
	for _, repo := range r.repos {
		if !vcs.IsSubPath(repo.Root(), path) {
			continue
		}
		if best == nil || len(repo.Root()) > len(best.Root()) {
			best = repo
		}
	}
	return best
}

func (r *Registry) byRoot(root string) *repository.Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, repo := range r.repos {
		if repo.Root() == root {
			return repo
		}
	}
	return nil
}

// List returns the open repositories in the order they were opened.
func (r *Registry) List() []*repository.Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*repository.Repository(nil), r.repos...)
}

// Roots returns the roots of the open repositories.
func (r *Registry) Roots() []string {
	repos := r.List()
	roots := make([]string, len(repos))
	for i, repo := range repos {
		roots[i] = repo.Root()
	}
	return roots
}

// OnDidOpen registers fn to run for every repository opened from now on.
func (r *Registry) OnDidOpen(fn func(*repository.Repository)) (unsubscribe func()) {
	return r.observe(r.onOpen, fn)
}

// OnDidClose registers fn to run for every repository closed from now on.
func (r *Registry) OnDidClose(fn func(*repository.Repository)) (unsubscribe func()) {
	return r.observe(r.onClose, fn)
}

func (r *Registry) observe(set map[int]func(*repository.Repository), fn func(*repository.Repository)) func() {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()

	id := r.nextObs
	r.nextObs++
	set[id] = fn

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		delete(set, id)
	}
}

func (r *Registry) notify(set map[int]func(*repository.Repository), repo *repository.Repository) {
	r.obsMu.Lock()
	fns := make([]func(*repository.Repository), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	r.obsMu.Unlock()

	for _, fn := range fns {
		fn(repo)
	}
}

// ===================
// Persisted state
// ===================

// State is the persisted form of the registry.
type State struct {
	Roots []string `toml:"roots"`
}

// SaveState writes the open roots to path as TOML.
func (r *Registry) SaveState(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(State{Roots: r.Roots()}); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return nil
}

// LoadState reopens the roots saved at path. A missing file is not an
// error. Roots that fail to open are skipped and reported together.
func (r *Registry) LoadState(ctx context.Context, path string) error {
	var st State
	if _, err := toml.DecodeFile(path, &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("decode state %s: %w", path, err)
	}

	var errs []error
	for _, root := range st.Roots {
		if _, err := r.Open(ctx, root); err != nil {
			r.log.Warn().Err(err).Str("repo", root).Msg("failed to reopen repository")
			errs = append(errs, fmt.Errorf("%s: %w", root, err))
		}
	}
	return errors.Join(errs...)
}
