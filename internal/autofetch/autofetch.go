// Package autofetch periodically fetches a repository in the background.
//
// A Scheduler loops while enabled: it waits for the repository to be idle
// and focused, fetches, then sleeps for the period or until disabled,
// whichever comes first. An authentication failure disables it; other
// fetch errors are logged and the loop carries on.
package autofetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

const (
	// EnabledKey is the setting that turns autofetch on and off.
	EnabledKey = "autofetch"

	// DefaultPeriod is the pause between fetches.
	DefaultPeriod = 3 * time.Minute
)

// Repository is what a Scheduler needs from a repository.
type Repository interface {
	Root() string
	WhenIdleAndFocused(ctx context.Context) error
	Fetch(ctx context.Context, opts vcs.FetchOptions) error
}

// Settings is the configuration a Scheduler follows.
type Settings interface {
	Bool(key string) bool
	OnDidChange(fn func(key string)) (unsubscribe func())
}

// Scheduler runs the fetch loop for one repository.
type Scheduler struct {
	repo   Repository
	period time.Duration
	log    zerolog.Logger

	mu        sync.Mutex
	enabled   bool
	disposed  bool
	gen       uint64 // identifies the running loop
	cancel    context.CancelFunc
	done      chan struct{}
	observers map[int]func(bool)
	nextObs   int
	unsetting func()
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPeriod sets the pause between fetches.
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a scheduler for repo. With settings it starts in the state
// EnabledKey asks for and follows later changes; without it starts
// disabled.
func New(repo Repository, settings Settings, opts ...Option) *Scheduler {
	closed := make(chan struct{})
	close(closed)

	s := &Scheduler{
		repo:      repo,
		period:    DefaultPeriod,
		log:       zerolog.Nop(),
		done:      closed,
		observers: make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("repo", repo.Root()).Logger()

	if settings != nil {
		s.unsetting = settings.OnDidChange(func(key string) {
			if key == EnabledKey {
				s.apply(settings.Bool(EnabledKey))
			}
		})
		s.apply(settings.Bool(EnabledKey))
	}
	return s
}

func (s *Scheduler) apply(enabled bool) {
	if enabled {
		s.Enable()
	} else {
		s.Disable()
	}
}

// Enabled reports whether the loop is meant to run.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Done is closed once the most recently started loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// OnDidChange registers fn for enabled state transitions.
func (s *Scheduler) OnDidChange(fn func(enabled bool)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Enable starts the loop. It is a no-op when already enabled or disposed.
func (s *Scheduler) Enable() {
	s.mu.Lock()
	if s.enabled || s.disposed {
		s.mu.Unlock()
		return
	}
	s.enabled = true
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	fns := s.observersLocked()
	s.mu.Unlock()

	s.log.Debug().Msg("autofetch enabled")
	for _, fn := range fns {
		fn(true)
	}
	go s.run(ctx, gen, done)
}

// Disable stops the loop at its next suspension point. A fetch already in
// flight completes, but no further fetch is issued.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	s.disableLocked()
}

// disableLocked disables and notifies. It releases s.mu.
func (s *Scheduler) disableLocked() {
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = false
	s.cancel()
	s.cancel = nil
	fns := s.observersLocked()
	s.mu.Unlock()

	s.log.Debug().Msg("autofetch disabled")
	for _, fn := range fns {
		fn(false)
	}
}

func (s *Scheduler) observersLocked() []func(bool) {
	fns := make([]func(bool), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	return fns
}

// Dispose disables the scheduler for good and drops its subscriptions.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	s.disposed = true
	unsetting := s.unsetting
	s.unsetting = nil
	s.disableLocked()

	if unsetting != nil {
		unsetting()
	}
}

// current reports whether the loop started as gen may still fetch. It is
// decided under s.mu, so a Disable that returned before it is observed.
func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.gen == gen
}

func (s *Scheduler) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	for {
		if err := s.repo.WhenIdleAndFocused(ctx); err != nil {
			return
		}
		if !s.current(gen) {
			return
		}

		// Disabling must not abort a fetch that already started.
		err := s.repo.Fetch(context.WithoutCancel(ctx), vcs.FetchOptions{})
		switch {
		case errors.Is(err, vcs.ErrAuthenticationFailed):
			s.log.Warn().Err(err).Msg("autofetch disabled after authentication failure")
			s.mu.Lock()
			if s.gen != gen {
				s.mu.Unlock()
				return
			}
			s.disableLocked()
			return
		case err != nil:
			s.log.Debug().Err(err).Msg("autofetch failed")
		}

		if ctx.Err() != nil {
			return
		}

		timer := time.NewTimer(s.period)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
