// Package batch coalesces many single-key lookups into one backend query.
//
// Callers Submit keys and block until the answer arrives. Each submission
// rearms a single quiescence timer; when it expires the pending keys are
// swapped out and sent as one query, and every waiter for a key receives
// the same answer. Keys submitted while a query is in flight wait for the
// next batch.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDelay is the quiescence window used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// ErrClosed is returned for submissions to, or pending on, a closed queue.
var ErrClosed = errors.New("batch: queue closed")

// Query answers a batch of keys with the subset that matched.
type Query[K comparable] func(ctx context.Context, keys []K) (map[K]struct{}, error)

type result struct {
	matched bool
	err     error
}

// Queue is a debounced batch queue. It is safe for concurrent use.
type Queue[K comparable] struct {
	query Query[K]
	delay time.Duration
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[K][]chan result
	order   []K
	timer   *time.Timer
	seq     uint64 // invalidates stale timer callbacks
	closed  bool
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	delay time.Duration
	log   zerolog.Logger
}

// WithDelay sets the quiescence window.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithLogger sets the logger used for batch diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a queue answering batches with query.
func New[K comparable](query Query[K], opts ...Option) *Queue[K] {
	o := options{delay: DefaultDelay, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[K]{
		query:   query,
		delay:   o.delay,
		log:     o.log,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[K][]chan result),
	}
}

// Submit queues key and waits for the batch containing it to be answered.
// Canceling ctx abandons the wait but not the key's place in the batch.
func (q *Queue[K]) Submit(ctx context.Context, key K) (bool, error) {
	ch, err := q.enqueue([]K{key})
	if err != nil {
		return false, err
	}
	return wait(ctx, ch[0])
}

// SubmitAll queues keys together and waits for all of them. The result
// holds an entry for every key.
func (q *Queue[K]) SubmitAll(ctx context.Context, keys []K) (map[K]bool, error) {
	chans, err := q.enqueue(keys)
	if err != nil {
		return nil, err
	}

	out := make(map[K]bool, len(keys))
	for i, ch := range chans {
		matched, err := wait(ctx, ch)
		if err != nil {
			return nil, err
		}
		out[keys[i]] = matched
	}
	return out, nil
}

func wait(ctx context.Context, ch <-chan result) (bool, error) {
	select {
	case r := <-ch:
		return r.matched, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (q *Queue[K]) enqueue(keys []K) ([]chan result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}

	chans := make([]chan result, len(keys))
	for i, key := range keys {
		ch := make(chan result, 1)
		if _, ok := q.pending[key]; !ok {
			q.order = append(q.order, key)
		}
		q.pending[key] = append(q.pending[key], ch)
		chans[i] = ch
	}

	q.seq++
	seq := q.seq
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.delay, func() {
		q.mu.Lock()
		if q.seq != seq {
			q.mu.Unlock()
			return
		}
		keys, waiters := q.takeLocked()
		q.mu.Unlock()
		q.run(keys, waiters)
	})

	return chans, nil
}

// takeLocked swaps out the pending set. q.mu must be held.
func (q *Queue[K]) takeLocked() ([]K, map[K][]chan result) {
	keys, waiters := q.order, q.pending
	q.order = nil
	q.pending = make(map[K][]chan result)
	q.timer = nil
	return keys, waiters
}

func (q *Queue[K]) run(keys []K, waiters map[K][]chan result) {
	if len(keys) == 0 {
		return
	}

	matched, err := q.query(q.ctx, keys)
	if err != nil {
		q.log.Warn().Err(err).Int("keys", len(keys)).Msg("batch query failed")
	} else {
		q.log.Debug().Int("keys", len(keys)).Int("matched", len(matched)).Msg("batch query")
	}

	for key, chans := range waiters {
		r := result{err: err}
		if err == nil {
			_, r.matched = matched[key]
		}
		for _, ch := range chans {
			ch <- r
		}
	}
}

// Flush answers the pending keys now instead of waiting for the timer.
func (q *Queue[K]) Flush() {
	q.mu.Lock()
	q.seq++
	if q.timer != nil {
		q.timer.Stop()
	}
	keys, waiters := q.takeLocked()
	q.mu.Unlock()

	q.run(keys, waiters)
}

// Pending returns the number of waiters not yet part of a batch.
func (q *Queue[K]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, chans := range q.pending {
		n += len(chans)
	}
	return n
}

// Close rejects pending waiters with ErrClosed and cancels an in-flight
// query.
func (q *Queue[K]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.seq++
	if q.timer != nil {
		q.timer.Stop()
	}
	_, waiters := q.takeLocked()
	q.mu.Unlock()

	q.cancel()
	for _, chans := range waiters {
		for _, ch := range chans {
			ch <- result{err: ErrClosed}
		}
	}
}
