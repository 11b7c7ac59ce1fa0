package decoration

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/batch"
	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// Provider derives status decorations for one repository. After every
// repository operation it rebuilds the snapshot and publishes the paths
// that entered or left it.
type Provider struct {
	repo *repository.Repository
	bus  *Bus

	mu      sync.Mutex
	current Snapshot
	unsub   func()
}

// NewProvider attaches a provider to repo, seeded from its current groups.
func NewProvider(repo *repository.Repository, bus *Bus) *Provider {
	p := &Provider{repo: repo, bus: bus, current: make(Snapshot)}
	p.Update()
	p.unsub = repo.Subscribe(func(repository.Event) { p.Update() })
	return p
}

// Update recomputes the snapshot and returns the changed paths.
func (p *Provider) Update() []string {
	p.mu.Lock()
	next := Build(p.repo.Groups())
	changed := Diff(p.current, next)
	p.current = next
	p.mu.Unlock()

	if len(changed) > 0 {
		p.bus.Publish(Change{Root: p.repo.Root(), URIs: changed})
	}
	return changed
}

// Decoration returns the status decoration of uri.
func (p *Provider) Decoration(uri string) (repository.Decoration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.current[uri]
	return d, ok
}

// Snapshot returns a copy of the current snapshot.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(Snapshot, len(p.current))
	for k, v := range p.current {
		out[k] = v
	}
	return out
}

// Dispose detaches the provider from its repository.
func (p *Provider) Dispose() {
	if p.unsub != nil {
		p.unsub()
	}
}

// IgnoredDecoration decorates paths matched by ignore rules.
var IgnoredDecoration = repository.Decoration{
	Priority: 3,
	Color:    "gitDecoration.ignoredResourceForeground",
	Tooltip:  "Ignored",
}

// IgnoreProvider answers "is this path ignored" through a debounced batch
// queue so bursts of lookups cost one check-ignore call.
type IgnoreProvider struct {
	repo  *repository.Repository
	bus   *Bus
	queue *batch.Queue[string]
}

// NewIgnoreProvider creates an ignore provider for repo batching lookups
// over delay.
func NewIgnoreProvider(repo *repository.Repository, bus *Bus, delay time.Duration, log zerolog.Logger) *IgnoreProvider {
	return &IgnoreProvider{
		repo: repo,
		bus:  bus,
		queue: batch.New(repo.CheckIgnore,
			batch.WithDelay(delay),
			batch.WithLogger(log.With().Str("repo", repo.Root()).Logger()),
		),
	}
}

// Decoration returns IgnoredDecoration when uri is ignored.
func (p *IgnoreProvider) Decoration(ctx context.Context, uri string) (repository.Decoration, bool, error) {
	ignored, err := p.queue.Submit(ctx, uri)
	if err != nil || !ignored {
		return repository.Decoration{}, false, err
	}
	return IgnoredDecoration, true, nil
}

// Ignored returns which of uris are ignored.
func (p *IgnoreProvider) Ignored(ctx context.Context, uris []string) (map[string]bool, error) {
	return p.queue.SubmitAll(ctx, uris)
}

// NotifyFileSaved invalidates every decoration of the repository when an
// ignore file was saved.
func (p *IgnoreProvider) NotifyFileSaved(path string) bool {
	if filepath.Base(path) != ".gitignore" {
		return false
	}
	p.bus.Publish(Change{Root: p.repo.Root(), All: true})
	return true
}

// Dispose rejects pending lookups.
func (p *IgnoreProvider) Dispose() {
	p.queue.Close()
}
