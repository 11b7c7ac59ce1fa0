package autofetch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
	"github.com/Mschirtzinger/stagehand/internal/vcs/vcstest"
)

// fakeRepo is idle and focused once ready is closed.
type fakeRepo struct {
	ready   chan struct{}
	fetches atomic.Int32
	err     atomic.Value
}

func newFakeRepo(ready bool) *fakeRepo {
	r := &fakeRepo{ready: make(chan struct{})}
	if ready {
		close(r.ready)
	}
	return r
}

func (r *fakeRepo) Root() string { return "/repo" }

func (r *fakeRepo) WhenIdleAndFocused(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *fakeRepo) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	r.fetches.Add(1)
	if err, ok := r.err.Load().(error); ok {
		return err
	}
	return nil
}

func (r *fakeRepo) failWith(err error) { r.err.Store(err) }

// settings is an in-memory Settings.
type settings struct {
	mu   sync.Mutex
	vals map[string]bool
	fns  []func(string)
}

func newSettings(autofetch bool) *settings {
	return &settings{vals: map[string]bool{EnabledKey: autofetch}}
}

func (s *settings) Bool(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals[key]
}

func (s *settings) OnDidChange(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	return func() {}
}

func (s *settings) set(key string, v bool) {
	s.mu.Lock()
	s.vals[key] = v
	fns := slices.Clone(s.fns)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func waitDone(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
	}
}

func TestFetchesPeriodically(t *testing.T) {
	repo := newFakeRepo(true)
	s := New(repo, newSettings(true), WithPeriod(5*time.Millisecond))
	defer s.Dispose()

	require.Eventually(t, func() bool { return repo.fetches.Load() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, s.Enabled())
}

func TestWaitsForIdleAndFocus(t *testing.T) {
	repo := newFakeRepo(false)
	s := New(repo, newSettings(true), WithPeriod(time.Hour))
	defer s.Dispose()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.fetches.Load())

	close(repo.ready)
	require.Eventually(t, func() bool { return repo.fetches.Load() == 1 }, time.Second, time.Millisecond)
}

func TestDisableWhileWaitingSkipsFetch(t *testing.T) {
	repo := newFakeRepo(false)
	s := New(repo, newSettings(true))

	s.Disable()
	waitDone(t, s)
	close(repo.ready)

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, repo.fetches.Load())
	assert.False(t, s.Enabled())
}

// hookRepo runs onIdle and reports idle, whatever its context says.
type hookRepo struct {
	fakeRepo
	onIdle func()
}

func (r *hookRepo) WhenIdleAndFocused(ctx context.Context) error {
	r.onIdle()
	return nil
}

func TestDisableJustBeforeFetchSkipsIt(t *testing.T) {
	repo := &hookRepo{}
	s := New(repo, nil, WithPeriod(time.Hour))
	repo.onIdle = s.Disable

	s.Enable()
	waitDone(t, s)
	assert.Zero(t, repo.fetches.Load())
	assert.False(t, s.Enabled())
}

func TestReenableJustBeforeFetchFetchesOnce(t *testing.T) {
	repo := &hookRepo{}
	s := New(repo, nil, WithPeriod(time.Hour))
	defer s.Dispose()
	var once sync.Once
	repo.onIdle = func() {
		once.Do(func() {
			s.Disable()
			s.Enable()
		})
	}

	s.Enable()
	require.Eventually(t, func() bool { return repo.fetches.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), repo.fetches.Load())
}

func TestDisableInterruptsPeriod(t *testing.T) {
	repo := newFakeRepo(true)
	s := New(repo, newSettings(true), WithPeriod(time.Hour))

	require.Eventually(t, func() bool { return repo.fetches.Load() == 1 }, time.Second, time.Millisecond)
	s.Disable()
	waitDone(t, s)
	assert.Equal(t, int32(1), repo.fetches.Load())
}

func TestAuthenticationFailureDisables(t *testing.T) {
	repo := newFakeRepo(true)
	repo.failWith(&vcs.Error{Op: "fetch", Code: vcs.CodeAuthenticationFailed})

	var mu sync.Mutex
	var transitions []bool
	s := New(repo, nil, WithPeriod(time.Millisecond))
	s.OnDidChange(func(enabled bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, enabled)
	})

	s.Enable()
	waitDone(t, s)

	assert.False(t, s.Enabled())
	assert.Equal(t, int32(1), repo.fetches.Load())
	mu.Lock()
	assert.Equal(t, []bool{true, false}, transitions)
	mu.Unlock()
}

func TestOtherErrorsAreSwallowed(t *testing.T) {
	repo := newFakeRepo(true)
	repo.failWith(errors.New("network down"))

	s := New(repo, newSettings(true), WithPeriod(time.Millisecond))
	defer s.Dispose()

	require.Eventually(t, func() bool { return repo.fetches.Load() >= 2 }, time.Second, time.Millisecond)
	assert.True(t, s.Enabled())
}

func TestFollowsSettings(t *testing.T) {
	repo := newFakeRepo(true)
	cfg := newSettings(false)
	s := New(repo, cfg, WithPeriod(time.Hour))
	defer s.Dispose()

	assert.False(t, s.Enabled())

	cfg.set(EnabledKey, true)
	assert.True(t, s.Enabled())
	require.Eventually(t, func() bool { return repo.fetches.Load() == 1 }, time.Second, time.Millisecond)

	cfg.set(EnabledKey, false)
	assert.False(t, s.Enabled())
	waitDone(t, s)
}

func TestDisposePreventsReenable(t *testing.T) {
	repo := newFakeRepo(false)
	s := New(repo, newSettings(true))

	s.Dispose()
	waitDone(t, s)
	s.Enable()
	close(repo.ready)

	assert.False(t, s.Enabled())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, repo.fetches.Load())
}

func TestGroupFollowsRegistry(t *testing.T) {
	reg := registry.New()
	cfg := newSettings(true)

	fake := vcstest.New("/a")
	first := repository.New(fake)
	reg.Track(first)

	g := Follow(reg, cfg, WithPeriod(time.Hour))
	defer g.Dispose()

	require.NotNil(t, g.Scheduler("/a"))
	require.Eventually(t, func() bool { return len(fake.Calls("fetch")) == 1 }, time.Second, time.Millisecond)

	reg.Track(repository.New(vcstest.New("/b")))
	assert.NotNil(t, g.Scheduler("/b"))

	s := g.Scheduler("/a")
	reg.Close("/a")
	assert.Nil(t, g.Scheduler("/a"))
	assert.False(t, s.Enabled())
}
