package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stagehand.log")

	l, err := New(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	l.Info().Str("repo", "/r").Msg("repository opened")
	l.Debug().Msg("dropped at info level")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/r", entry["repo"])
	assert.Equal(t, "repository opened", entry["message"])
}

func TestVerboseAddsConsole(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{File: filepath.Join(t.TempDir(), "x.log"), Verbose: true, Console: &console})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
	l.Debug().Msg("fetching")
	assert.Contains(t, console.String(), "fetching")
}

func TestLevel(t *testing.T) {
	l, err := New(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "WARN"})
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	_, err = New(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	require.Error(t, err)
}
