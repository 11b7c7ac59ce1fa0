package autofetch

import (
	"sync"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// Group keeps one Scheduler per open repository of a registry.
type Group struct {
	settings Settings
	opts     []Option

	mu         sync.Mutex
	schedulers map[string]*Scheduler
	stops      []func()
	observers  map[int]func(root string, enabled bool)
	nextObs    int
}

// Follow starts a scheduler for every repository open in reg now or later
// and disposes it when the repository closes.
func Follow(reg *registry.Registry, settings Settings, opts ...Option) *Group {
	g := &Group{
		settings:   settings,
		opts:       opts,
		schedulers: make(map[string]*Scheduler),
		observers:  make(map[int]func(string, bool)),
	}
	g.stops = append(g.stops, reg.OnDidOpen(g.add), reg.OnDidClose(g.remove))
	for _, repo := range reg.List() {
		g.add(repo)
	}
	return g
}

func (g *Group) add(repo *repository.Repository) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.schedulers[repo.Root()]; ok {
		return
	}
	root := repo.Root()
	s := New(repo, g.settings, g.opts...)
	s.OnDidChange(func(enabled bool) { g.notify(root, enabled) })
	g.schedulers[root] = s
}

// OnDidChange registers fn for the enabled transitions of every scheduler
// in the group.
func (g *Group) OnDidChange(fn func(root string, enabled bool)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextObs
	g.nextObs++
	g.observers[id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.observers, id)
	}
}

func (g *Group) notify(root string, enabled bool) {
	g.mu.Lock()
	fns := make([]func(string, bool), 0, len(g.observers))
	for _, fn := range g.observers {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(root, enabled)
	}
}

func (g *Group) remove(repo *repository.Repository) {
	g.mu.Lock()
	s, ok := g.schedulers[repo.Root()]
	delete(g.schedulers, repo.Root())
	g.mu.Unlock()

	if ok {
		s.Dispose()
	}
}

// Scheduler returns the scheduler of the repository at root.
func (g *Group) Scheduler(root string) *Scheduler {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.schedulers[root]
}

// Dispose stops following the registry and disposes every scheduler.
func (g *Group) Dispose() {
	g.mu.Lock()
	stops, schedulers := g.stops, g.schedulers
	g.stops = nil
	g.schedulers = make(map[string]*Scheduler)
	g.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	for _, s := range schedulers {
		s.Dispose()
	}
}
