// Package watcher refreshes repositories when their files change on disk.
//
// Every open repository's working tree is watched with fsnotify. Changes
// are queued per repository and, once a repository has been quiet for the
// debounce interval, its status is re-read. Saved .gitignore files are
// also reported so ignore decorations can be recomputed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// DefaultDebounce is how long a repository must be quiet before refreshing.
const DefaultDebounce = 250 * time.Millisecond

// Kind classifies a changed path.
type Kind int

const (
	// KindIgnored paths never trigger a refresh.
	KindIgnored Kind = iota
	// KindWorkTree is a file of the working tree.
	KindWorkTree
	// KindIgnoreFile is a .gitignore file.
	KindIgnoreFile
	// KindMetadata is git state that moves HEAD, the index or refs.
	KindMetadata
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindWorkTree:
		return "worktree"
	case KindIgnoreFile:
		return "ignorefile"
	case KindMetadata:
		return "metadata"
	default:
		return "ignored"
	}
}

// metadataFiles are the files of .git whose change means status moved.
var metadataFiles = map[string]bool{
	"index":      true,
	"HEAD":       true,
	"ORIG_HEAD":  true,
	"FETCH_HEAD": true,
	"MERGE_HEAD": true,
}

// Classify decides what a change of path means for the repository rooted
// at root.
func Classify(root, path string) Kind {
	if !vcs.IsSubPath(root, path) {
		return KindIgnored
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return KindIgnored
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := parts[len(parts)-1]
	switch {
	case parts[0] == ".git":
		if len(parts) == 2 && metadataFiles[last] {
			return KindMetadata
		}
		return KindIgnored
	case slices.Contains(parts[:len(parts)-1], ".git"):
		return KindIgnored
	case last == ".gitignore":
		return KindIgnoreFile
	default:
		return KindWorkTree
	}
}

// Config holds watcher configuration.
type Config struct {
	// Debounce is how long a repository must be quiet before its status is
	// re-read (default: DefaultDebounce)
	Debounce time.Duration

	// OnIgnoreFileSaved is called for every written .gitignore
	OnIgnoreFileSaved func(path string)

	// Logger for watcher activity
	Logger zerolog.Logger
}

// Watcher refreshes the repositories of a registry on file changes.
type Watcher struct {
	reg    *registry.Registry
	config Config

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time // repository root -> last change
	running bool
	unsubs  []func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher over the repositories of reg. It does nothing
// until started.
func New(reg *registry.Registry, config Config) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		reg:     reg,
		config:  config,
		fsw:     fsw,
		pending: make(map[string]time.Time),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start watches every open repository, and repositories opened later.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.unsubs = append(w.unsubs,
		w.reg.OnDidOpen(func(repo *repository.Repository) {
			if err := w.add(repo.Root()); err != nil {
				w.config.Logger.Warn().Err(err).Str("repo", repo.Root()).Msg("watch repository")
			}
		}),
		w.reg.OnDidClose(func(repo *repository.Repository) { w.remove(repo.Root()) }),
	)
	w.mu.Unlock()

	for _, root := range w.reg.Roots() {
		if err := w.add(root); err != nil {
			return err
		}
	}

	w.wg.Add(2)
	go w.watchEvents()
	go w.processQueue()
	return nil
}

// Stop stops watching and waits for the event loops to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.fsw.Close()
	}
	w.running = false
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// add watches root and every directory below it, except git internals.
// The .git directory itself is watched for metadata changes.
func (w *Watcher) add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != root {
			if filepath.Dir(path) == root {
				if err := w.fsw.Add(path); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
			}
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) remove(root string) {
	for _, path := range w.fsw.WatchList() {
		if vcs.IsSubPath(root, path) {
			_ = w.fsw.Remove(path)
		}
	}
	w.mu.Lock()
	delete(w.pending, root)
	w.mu.Unlock()
}

func (w *Watcher) watchEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.config.Logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	repo := w.reg.Get(event.Name)
	if repo == nil {
		return
	}
	root := repo.Root()

	kind := Classify(root, event.Name)
	if kind == KindIgnored {
		return
	}

	if kind == KindWorkTree && event.Has(fsnotify.Create) {
		// New directories are watched too.
		if err := w.add(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.config.Logger.Debug().Err(err).Str("path", event.Name).Msg("watch new path")
		}
	}
	if kind == KindIgnoreFile && w.config.OnIgnoreFileSaved != nil && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
		w.config.OnIgnoreFileSaved(event.Name)
	}

	w.config.Logger.Debug().Str("path", event.Name).Str("kind", kind.String()).Msg("file event")
	w.queue(root)
}

func (w *Watcher) queue(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[root] = time.Now()
}

func (w *Watcher) processQueue() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending refreshes every repository quiet for the debounce
// interval.
func (w *Watcher) processPending() {
	now := time.Now()

	w.mu.Lock()
	var due []string
	for root, at := range w.pending {
		if now.Sub(at) >= w.config.Debounce {
			due = append(due, root)
			delete(w.pending, root)
		}
	}
	w.mu.Unlock()

	for _, root := range due {
		repo := w.reg.Get(root)
		if repo == nil || repo.Root() != root {
			continue
		}
		if err := repo.Status(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.config.Logger.Warn().Err(err).Str("repo", root).Msg("refresh after file change")
		}
	}
}

// Pending returns how many repositories wait for a refresh.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
