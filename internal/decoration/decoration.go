// Package decoration keeps per-path decorations in sync with repository
// state and publishes the paths whose decoration membership changed.
package decoration

import (
	"sort"
	"sync"

	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// Snapshot maps a resource's original path to its decoration.
type Snapshot map[string]repository.Decoration

// Build collects decorations from groups. Index resources are added first,
// then working tree, then merge, so a path present in several groups keeps
// the decoration of the last one.
func Build(groups repository.Groups) Snapshot {
	s := make(Snapshot)
	for _, res := range groups.All() {
		s[res.URI] = res.Decoration()
	}
	return s
}

// Diff returns the sorted keys present in exactly one of old and new.
// Keys present in both are not reported even if their decoration differs.
func Diff(old, new Snapshot) []string {
	var changed []string
	for k := range new {
		if _, ok := old[k]; !ok {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := new[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// Change announces that the decorations of URIs in one repository must be
// re-read. All means every path of the repository.
type Change struct {
	Root string   `json:"root"`
	URIs []string `json:"uris,omitempty"`
	All  bool     `json:"all,omitempty"`
}

// Bus fans changes out to subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]func(Change)
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Change))}
}

// Subscribe registers fn for every future change.
func (b *Bus) Subscribe(fn func(Change)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers c to every subscriber.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
