package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Query that matches keys found in its set and records the
// batches it was asked.
type recorder struct {
	mu      sync.Mutex
	set     map[string]struct{}
	batches [][]string
	err     error
}

func newRecorder(matched ...string) *recorder {
	r := &recorder{set: make(map[string]struct{})}
	for _, k := range matched {
		r.set[k] = struct{}{}
	}
	return r
}

func (r *recorder) query(_ context.Context, keys []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, append([]string(nil), keys...))
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[string]struct{})
	for _, k := range keys {
		if _, ok := r.set[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (r *recorder) calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

// submitN starts n concurrent submissions of key and returns their results
// once all have been answered.
func submitN(t *testing.T, q *Queue[string], key string, n int) <-chan result {
	t.Helper()

	out := make(chan result, n)
	for i := 0; i < n; i++ {
		go func() {
			matched, err := q.Submit(context.Background(), key)
			out <- result{matched: matched, err: err}
		}()
	}
	return out
}

func TestSubmitCoalescesDuplicateKeys(t *testing.T) {
	rec := newRecorder("build/")
	q := New(rec.query, WithDelay(time.Hour))
	defer q.Close()

	results := submitN(t, q, "build/", 5)
	require.Eventually(t, func() bool { return q.Pending() == 5 }, time.Second, time.Millisecond)

	q.Flush()

	for i := 0; i < 5; i++ {
		r := <-results
		require.NoError(t, r.err)
		assert.True(t, r.matched)
	}
	assert.Equal(t, [][]string{{"build/"}}, rec.calls())
}

func TestSubmitAfterQuiescence(t *testing.T) {
	rec := newRecorder("a")
	q := New(rec.query, WithDelay(10*time.Millisecond))
	defer q.Close()

	got, err := q.SubmitAll(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": false}, got)
	assert.Equal(t, [][]string{{"a", "b"}}, rec.calls())
}

func TestSubmitRejectsWholeBatchOnError(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("check-ignore exploded")
	q := New(rec.query, WithDelay(time.Hour))
	defer q.Close()

	a := submitN(t, q, "a", 1)
	b := submitN(t, q, "b", 2)
	require.Eventually(t, func() bool { return q.Pending() == 3 }, time.Second, time.Millisecond)
	q.Flush()

	for _, ch := range []<-chan result{a, b, b} {
		r := <-ch
		assert.ErrorIs(t, r.err, rec.err)
	}
	assert.Len(t, rec.calls(), 1)
}

func TestResubmitDuringQueryJoinsNextBatch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	q := New(func(_ context.Context, keys []string) (map[string]struct{}, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return map[string]struct{}{"k": {}}, nil
	}, WithDelay(time.Hour))
	defer q.Close()

	first := submitN(t, q, "k", 1)
	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)
	go q.Flush()
	<-started

	second := submitN(t, q, "k", 1)
	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)

	close(release)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, int32(1), calls.Load())

	q.Flush()
	r = <-second
	require.NoError(t, r.err)
	assert.True(t, r.matched)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCloseRejectsPending(t *testing.T) {
	rec := newRecorder()
	q := New(rec.query, WithDelay(time.Hour))

	pending := submitN(t, q, "x", 2)
	require.Eventually(t, func() bool { return q.Pending() == 2 }, time.Second, time.Millisecond)

	q.Close()
	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, (<-pending).err, ErrClosed)
	}
	assert.Empty(t, rec.calls())

	_, err := q.Submit(context.Background(), "y")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmitHonoursContext(t *testing.T) {
	q := New(newRecorder().query, WithDelay(time.Hour))
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Submit(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, q.Pending())
}
