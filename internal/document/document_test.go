package document

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineModel(t *testing.T) {
	tests := []struct {
		text      string
		lineCount int
		eol       bool
	}{
		{"", 1, true},
		{"a", 1, false},
		{"a\n", 2, true},
		{"a\nb", 2, false},
		{"a\r\nb\r\n", 3, true},
	}

	for _, tt := range tests {
		d := New("x", tt.text)
		assert.Equal(t, tt.lineCount, d.LineCount(), "LineCount(%q)", tt.text)
		assert.Equal(t, tt.eol, d.EndsWithEOL(), "EndsWithEOL(%q)", tt.text)
	}
}

func TestLineAndSpan(t *testing.T) {
	d := New("x", "one\r\ntwo\nthree")

	assert.Equal(t, "one", d.Line(0))
	assert.Equal(t, "two", d.Line(1))
	assert.Equal(t, "three", d.Line(2))
	assert.Equal(t, "\r\n", d.EOL(0))
	assert.Equal(t, "", d.EOL(2))
	assert.Equal(t, "two\nthree", d.Span(1, 3))
	assert.Equal(t, "", d.Span(1, 1))
}

func TestReplaceMarksDirty(t *testing.T) {
	d := New("x", "a\n")
	d.Replace("a\n")
	assert.False(t, d.IsDirty())

	d.Replace("b\nc\n")
	assert.True(t, d.IsDirty())
	assert.Equal(t, 3, d.LineCount())
}

func TestStoreOpenSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/file.txt", []byte("old\n"), 0o600))

	s := NewStore(fs)
	d, err := s.Open("/repo/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "old\n", d.Text())

	again, err := s.Open("/repo/./file.txt")
	require.NoError(t, err)
	assert.Same(t, d, again)

	d.Replace("new\n")
	require.NoError(t, s.Save(d))
	assert.False(t, d.IsDirty())

	data, err := afero.ReadFile(fs, "/repo/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err := fs.Stat("/repo/file.txt")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreSaveRecreatesRemovedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/file.txt", []byte("old\n"), 0o600))

	s := NewStore(fs)
	d, err := s.Open("/repo/file.txt")
	require.NoError(t, err)
	require.NoError(t, fs.Remove("/repo/file.txt"))

	d.Replace("new\n")
	require.NoError(t, s.Save(d))

	info, err := fs.Stat("/repo/file.txt")
	require.NoError(t, err)
	assert.Equal(t, defaultMode, info.Mode().Perm())
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStoreOpenMissing(t *testing.T) {
	s := NewStore(afero.NewMemMapFs())
	_, err := s.Open("/missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f", []byte("x"), 0o644))

	s := NewStore(fs)
	d, err := s.Open("/f")
	require.NoError(t, err)
	d.Replace("unsaved")
	s.Close("/f")

	fresh, err := s.Open("/f")
	require.NoError(t, err)
	assert.Equal(t, "x", fresh.Text())
}
