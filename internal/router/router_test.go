package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs/vcstest"
)

func newTestRegistry(roots ...string) *registry.Registry {
	reg := registry.New()
	for _, root := range roots {
		reg.Track(repository.New(vcstest.New(root)))
	}
	return reg
}

func TestGroupPaths(t *testing.T) {
	reg := newTestRegistry("/a", "/b", "/a/nested")

	groups, unresolved := GroupPaths(reg, []string{
		"/b/1", "/a/1", "/x/9", "/a/nested/1", "/b/2", "/a/2",
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "/b", groups[0].Repository.Root())
	assert.Equal(t, []string{"/b/1", "/b/2"}, groups[0].Paths)
	assert.Equal(t, "/a", groups[1].Repository.Root())
	assert.Equal(t, []string{"/a/1", "/a/2"}, groups[1].Paths)
	assert.Equal(t, "/a/nested", groups[2].Repository.Root())
	assert.Equal(t, []string{"/a/nested/1"}, groups[2].Paths)
	assert.Equal(t, []string{"/x/9"}, unresolved)
}

func TestGroupPathsPartitionsInput(t *testing.T) {
	reg := newTestRegistry("/a", "/b")
	input := []string{"/a/1", "/b/1", "/c/1", "/a/2", "/b/2", "/a/3"}

	groups, unresolved := GroupPaths(reg, input)

	seen := make(map[string]int)
	for _, g := range groups {
		assert.NotEmpty(t, g.Paths)
		for _, p := range g.Paths {
			seen[p]++
		}
	}
	for _, p := range unresolved {
		seen[p]++
	}
	for _, p := range input {
		assert.Equal(t, 1, seen[p], "path %s", p)
	}
	assert.Len(t, seen, len(input))
}

func TestRunBatch(t *testing.T) {
	reg := newTestRegistry("/a", "/b")
	r := New(reg)

	var mu sync.Mutex
	calls := make(map[string][]string)

	results, err := RunBatch(context.Background(), r, []string{"/a/1", "/b/1", "/a/2", "/nowhere"},
		func(_ context.Context, repo *repository.Repository, paths []string) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			calls[repo.Root()] = append(calls[repo.Root()], paths...)
			return len(paths), nil
		})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/a", results[0].Repository.Root())
	assert.Equal(t, 2, results[0].Value)
	assert.Equal(t, "/b", results[1].Repository.Root())
	assert.Equal(t, 1, results[1].Value)
	assert.Equal(t, map[string][]string{"/a": {"/a/1", "/a/2"}, "/b": {"/b/1"}}, calls)
}

func TestRunBatchRunsGroupsConcurrently(t *testing.T) {
	reg := newTestRegistry("/a", "/b")
	r := New(reg)

	var started sync.WaitGroup
	started.Add(2)
	both := make(chan struct{})
	go func() {
		started.Wait()
		close(both)
	}()

	err := r.Run(context.Background(), []string{"/a/1", "/b/1"}, func(context.Context, *repository.Repository, []string) error {
		started.Done()
		select {
		case <-both:
			return nil
		case <-time.After(time.Second):
			return errors.New("groups ran one after another")
		}
	})
	assert.NoError(t, err)
}

func TestRunBatchAggregatesFailures(t *testing.T) {
	reg := newTestRegistry("/a", "/b")
	r := New(reg)
	boom := errors.New("boom")

	results, err := RunBatch(context.Background(), r, []string{"/a/1", "/b/1"},
		func(_ context.Context, repo *repository.Repository, _ []string) (string, error) {
			if repo.Root() == "/a" {
				return "", boom
			}
			return "ok", nil
		})

	assert.ErrorIs(t, err, boom)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, "ok", results[1].Value)
	assert.Len(t, Failed(results), 1)
	assert.False(t, AllFailed(results))
}

func TestRunBatchNothingResolved(t *testing.T) {
	r := New(newTestRegistry("/a"))

	called := false
	results, err := RunBatch(context.Background(), r, []string{"/z/1"},
		func(context.Context, *repository.Repository, []string) (bool, error) {
			called = true
			return true, nil
		})

	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
	assert.False(t, AllFailed(results))
}

func TestRunScalar(t *testing.T) {
	r := New(newTestRegistry("/a"))

	got, err := RunScalar(context.Background(), r, "/a/file", func(_ context.Context, repo *repository.Repository, path string) (string, error) {
		return repo.Root() + ":" + path, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/a:/a/file", got)

	got, err = RunScalar(context.Background(), r, "/b/file", func(context.Context, *repository.Repository, string) (string, error) {
		t.Fatal("called for unresolved path")
		return "", nil
	})
	assert.NoError(t, err)
	assert.Empty(t, got)
}
