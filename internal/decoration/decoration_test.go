package decoration

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
	"github.com/Mschirtzinger/stagehand/internal/vcs/vcstest"
)

// recorder collects published changes.
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) take() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.changes
	r.changes = nil
	return out
}

func newBus() (*Bus, *recorder) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(rec.record)
	return bus, rec
}

func modified(path string) vcs.FileStatus {
	return vcs.FileStatus{Path: path, StagedCode: vcs.StatusUnmodified, Status: vcs.StatusModified}
}

func TestDiff(t *testing.T) {
	m := repository.Decoration{Letter: "M"}
	d := repository.Decoration{Letter: "D"}

	assert.Equal(t, []string{"/a", "/c"}, Diff(Snapshot{"/a": m, "/b": m}, Snapshot{"/b": m, "/c": m}))
	assert.Empty(t, Diff(Snapshot{"/a": m}, Snapshot{"/a": d}), "identity only")
	assert.Empty(t, Diff(nil, Snapshot{}))
	assert.Equal(t, []string{"/a"}, Diff(nil, Snapshot{"/a": m}))
}

func TestBuildKeysByOriginalPath(t *testing.T) {
	groups := repository.Groups{
		Index: []repository.Resource{
			{URI: "/r/old.txt", RenameURI: "/r/new.txt", Group: repository.GroupIndex, Status: repository.IndexRenamed},
			{URI: "/r/both.txt", Group: repository.GroupIndex, Status: repository.IndexModified},
		},
		WorkingTree: []repository.Resource{
			{URI: "/r/both.txt", Group: repository.GroupWorkingTree, Status: repository.Deleted},
		},
	}

	s := Build(groups)
	require.Len(t, s, 2)
	assert.Equal(t, "R", s["/r/old.txt"].Letter)
	assert.Equal(t, "D", s["/r/both.txt"].Letter, "working tree overrides index")
}

func TestProviderPublishesDelta(t *testing.T) {
	ctx := context.Background()
	fake := vcstest.New("/r")
	fake.SetStatus(modified("a.txt"))
	repo := repository.New(fake)
	require.NoError(t, repo.Status(ctx))

	bus, rec := newBus()
	p := NewProvider(repo, bus)
	defer p.Dispose()
	assert.Equal(t, []Change{{Root: "/r", URIs: []string{"/r/a.txt"}}}, rec.take())

	fake.SetStatus(modified("b.txt"))
	require.NoError(t, repo.Status(ctx))
	assert.Equal(t, []Change{{Root: "/r", URIs: []string{"/r/a.txt", "/r/b.txt"}}}, rec.take())

	require.NoError(t, repo.Status(ctx))
	assert.Empty(t, rec.take(), "unchanged key set publishes nothing")

	d, ok := p.Decoration("/r/b.txt")
	require.True(t, ok)
	assert.Equal(t, "M", d.Letter)

	p.Dispose()
	fake.SetStatus()
	require.NoError(t, repo.Status(ctx))
	assert.Empty(t, rec.take())
}

func TestIgnoreProvider(t *testing.T) {
	fake := vcstest.New("/r")
	fake.SetIgnored("/r/build")
	repo := repository.New(fake)

	bus, rec := newBus()
	p := NewIgnoreProvider(repo, bus, time.Millisecond, zerolog.Nop())
	defer p.Dispose()

	d, ok, err := p.Decoration(context.Background(), "/r/build")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, IgnoredDecoration, d)

	got, err := p.Ignored(context.Background(), []string{"/r/build", "/r/src"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"/r/build": true, "/r/src": false}, got)

	assert.False(t, p.NotifyFileSaved("/r/main.go"))
	assert.True(t, p.NotifyFileSaved("/r/sub/.gitignore"))
	assert.Equal(t, []Change{{Root: "/r", All: true}}, rec.take())
}

// settings is an in-memory Settings.
type settings struct {
	mu    sync.Mutex
	vals  map[string]bool
	onSet []func(string)
}

func (s *settings) Bool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[key]
}

func (s *settings) OnDidChange(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSet = append(s.onSet, fn)
	return func() {}
}

func (s *settings) set(key string, v bool) {
	s.mu.Lock()
	s.vals[key] = v
	fns := slices.Clone(s.onSet)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func TestManagerFollowsSettings(t *testing.T) {
	ctx := context.Background()
	fake := vcstest.New("/r")
	fake.SetStatus(modified("a.txt"))
	repo := repository.New(fake)
	require.NoError(t, repo.Status(ctx))

	reg := registry.New()
	reg.Track(repo)

	cfg := &settings{vals: map[string]bool{EnabledKey: true}}
	m := NewManager(reg, NewBus(), cfg, WithIgnoreDelay(time.Millisecond))
	defer m.Close()

	d, ok, err := m.Decoration(ctx, "/r/a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "M", d.Letter)
	assert.Len(t, m.Snapshot("/r"), 1)

	cfg.set(EnabledKey, false)
	assert.False(t, m.Enabled())
	_, ok, err = m.Decoration(ctx, "/r/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	cfg.set(EnabledKey, true)
	assert.True(t, m.Enabled())
	_, ok, err = m.Decoration(ctx, "/r/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerAttachesToOpenedRepositories(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	bus, rec := newBus()
	m := NewManager(reg, bus, nil, WithIgnoreDelay(time.Millisecond))
	defer m.Close()

	fake := vcstest.New("/late")
	fake.SetStatus(modified("x.txt"))
	fake.SetIgnored("/late/tmp")
	repo := repository.New(fake)
	require.NoError(t, repo.Status(ctx))
	reg.Track(repo)

	assert.Equal(t, []Change{{Root: "/late", URIs: []string{"/late/x.txt"}}}, rec.take())

	d, ok, err := m.Decoration(ctx, "/late/tmp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, d.Priority)

	m.NotifyFileSaved("/late/.gitignore")
	assert.Equal(t, []Change{{Root: "/late", All: true}}, rec.take())

	reg.Close("/late")
	assert.Nil(t, m.Snapshot("/late"))
}
