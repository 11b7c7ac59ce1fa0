package registry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
	"github.com/Mschirtzinger/stagehand/internal/vcs/vcstest"
)

var fakes = map[string]*vcstest.Fake{}

func init() {
	vcstest.Register(fakes)
}

// newTestRegistry returns a registry whose factory knows exactly roots.
func newTestRegistry(t *testing.T, roots ...string) *Registry {
	t.Helper()

	for k := range fakes {
		delete(fakes, k)
	}
	for _, root := range roots {
		fakes[root] = vcstest.New(root)
	}

	detect := func(path string) (*vcs.DetectionResult, error) {
		best := ""
		for _, root := range roots {
			if vcs.IsSubPath(root, path) && len(root) > len(best) {
				best = root
			}
		}
		if best == "" {
			return nil, vcs.ErrNotInVCS
		}
		return &vcs.DetectionResult{Type: vcs.TypeFake, RepoRoot: best}, nil
	}

	factory := vcs.NewFactory(vcs.WithType(vcs.TypeFake), vcs.WithDetector(detect), vcs.WithCache(true))
	return New(WithFactory(factory))
}

func TestOpenAndGet(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, "/work/app", "/work/app/vendor/lib", "/work/other")

	app, err := reg.Open(ctx, "/work/app")
	require.NoError(t, err)
	lib, err := reg.Open(ctx, "/work/app/vendor/lib/src")
	require.NoError(t, err)
	assert.Equal(t, "/work/app/vendor/lib", lib.Root())

	again, err := reg.Open(ctx, "/work/app/cmd")
	require.NoError(t, err)
	assert.Same(t, app, again)

	assert.Same(t, lib, reg.Get("/work/app/vendor/lib/x.go"))
	assert.Same(t, app, reg.Get("/work/app/main.go"))
	assert.Same(t, app, reg.Get("/work/app"))
	assert.Nil(t, reg.Get("/work/other/file"), "not opened")
	assert.Nil(t, reg.Get("/work/application/file"), "shared prefix is not containment")

	assert.Equal(t, []string{"/work/app", "/work/app/vendor/lib"}, reg.Roots())
	assert.Len(t, fakes["/work/app"].Calls("status"), 1)
}

func TestOpenOutsideRepository(t *testing.T) {
	reg := newTestRegistry(t, "/work/app")

	_, err := reg.Open(context.Background(), "/tmp/nothing")
	assert.ErrorIs(t, err, vcs.ErrNotInVCS)
	assert.Empty(t, reg.List())
}

func TestOpenStatusFailure(t *testing.T) {
	reg := newTestRegistry(t, "/work/app")
	boom := errors.New("boom")
	fakes["/work/app"].FailOn("status", boom)

	_, err := reg.Open(context.Background(), "/work/app")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, reg.List())
}

func TestOpenCloseObservers(t *testing.T) {
	reg := newTestRegistry(t, "/work/app")

	var opened, closed []string
	reg.OnDidOpen(func(r *repository.Repository) { opened = append(opened, r.Root()) })
	stop := reg.OnDidClose(func(r *repository.Repository) { closed = append(closed, r.Root()) })

	_, err := reg.Open(context.Background(), "/work/app")
	require.NoError(t, err)
	assert.True(t, reg.Close("/work/app/"))
	assert.False(t, reg.Close("/work/app"))

	stop()
	_, err = reg.Open(context.Background(), "/work/app")
	require.NoError(t, err)
	reg.Close("/work/app")

	assert.Equal(t, []string{"/work/app", "/work/app"}, opened)
	assert.Equal(t, []string{"/work/app"}, closed)
}

func TestClosesRepositoryThatDisappeared(t *testing.T) {
	reg := newTestRegistry(t, "/work/app")
	repo, err := reg.Open(context.Background(), "/work/app")
	require.NoError(t, err)

	fakes["/work/app"].FailOn("status", &vcs.Error{Op: "status", Code: vcs.CodeNotAGitRepository})
	assert.Error(t, repo.Status(context.Background()))

	assert.Nil(t, reg.Get("/work/app/file"))
}

func TestSaveAndLoadState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "repositories.toml")

	reg := newTestRegistry(t, "/work/app", "/work/other")
	_, err := reg.Open(ctx, "/work/app")
	require.NoError(t, err)
	_, err = reg.Open(ctx, "/work/other")
	require.NoError(t, err)
	require.NoError(t, reg.SaveState(path))

	restored := newTestRegistry(t, "/work/app", "/work/other")
	require.NoError(t, restored.LoadState(ctx, path))
	assert.Equal(t, []string{"/work/app", "/work/other"}, restored.Roots())
}

func TestLoadStateReportsFailures(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "repositories.toml")

	reg := newTestRegistry(t, "/work/app", "/work/gone")
	_, err := reg.Open(ctx, "/work/app")
	require.NoError(t, err)
	_, err = reg.Open(ctx, "/work/gone")
	require.NoError(t, err)
	require.NoError(t, reg.SaveState(path))

	restored := newTestRegistry(t, "/work/app")
	err = restored.LoadState(ctx, path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "/work/gone"))
	assert.Equal(t, []string{"/work/app"}, restored.Roots())
}

func TestLoadStateMissingFile(t *testing.T) {
	reg := newTestRegistry(t)
	assert.NoError(t, reg.LoadState(context.Background(), filepath.Join(t.TempDir(), "none.toml")))
}
