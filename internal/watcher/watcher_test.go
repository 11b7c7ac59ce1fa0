package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/vcs/vcstest"
)

func TestClassify(t *testing.T) {
	root := filepath.FromSlash("/repo")
	tests := map[string]Kind{
		"/repo/a.txt":             KindWorkTree,
		"/repo/src/b.go":          KindWorkTree,
		"/repo/.gitignore":        KindIgnoreFile,
		"/repo/sub/.gitignore":    KindIgnoreFile,
		"/repo/.git/index":        KindMetadata,
		"/repo/.git/HEAD":         KindMetadata,
		"/repo/.git/index.lock":   KindIgnored,
		"/repo/.git/objects/ab/c": KindIgnored,
		"/repo/vendor/.git/HEAD":  KindIgnored,
		"/repo/.git":              KindIgnored,
		"/other/a.txt":            KindIgnored,
	}
	for path, want := range tests {
		assert.Equal(t, want, Classify(root, filepath.FromSlash(path)), path)
	}
}

type setup struct {
	root  string
	fake  *vcstest.Fake
	reg   *registry.Registry
	saved chan string
	w     *Watcher
}

func newSetup(t *testing.T) *setup {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	fake := vcstest.New(root)
	reg := registry.New()
	reg.Track(repository.New(fake))

	s := &setup{root: root, fake: fake, reg: reg, saved: make(chan string, 10)}
	w, err := New(reg, Config{
		Debounce:          50 * time.Millisecond,
		OnIgnoreFileSaved: func(path string) { s.saved <- path },
		Logger:            zerolog.Nop(),
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	s.w = w
	return s
}

func TestWatcherStartStop(t *testing.T) {
	reg := registry.New()
	w, err := New(reg, Config{Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.Error(t, w.Start())
	require.NoError(t, w.Stop())
}

func TestWriteRefreshes(t *testing.T) {
	s := newSetup(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(s.root, "src", "a.go"), []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool {
		return len(s.fake.Calls("status")) >= 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestIgnoreFileSaved(t *testing.T) {
	s := newSetup(t)
	path := filepath.Join(s.root, ".gitignore")

	require.NoError(t, os.WriteFile(path, []byte("*.log\n"), 0o644))

	select {
	case got := <-s.saved:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no .gitignore notification")
	}
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	s := newSetup(t)
	dir := filepath.Join(s.root, "new")
	require.NoError(t, os.Mkdir(dir, 0o755))

	// The create event of dir itself refreshes once; wait for it to settle.
	require.Eventually(t, func() bool { return len(s.fake.Calls("status")) >= 1 }, 5*time.Second, 10*time.Millisecond)
	before := len(s.fake.Calls("status"))

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644)
		return len(s.fake.Calls("status")) > before
	}, 5*time.Second, 100*time.Millisecond)
}

func TestGitInternalsAreIgnored(t *testing.T) {
	s := newSetup(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.root, ".git", "index.lock"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, s.fake.Calls("status"))
}

func TestClosedRepositoryIsUnwatched(t *testing.T) {
	s := newSetup(t)
	s.reg.Close(s.root)

	require.NoError(t, os.WriteFile(filepath.Join(s.root, "a.txt"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, s.fake.Calls("status"))
	assert.Empty(t, s.w.fsw.WatchList())
}
