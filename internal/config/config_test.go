package config

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "/home/me/.config/stagehand/config.yaml"

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) record(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *keyRecorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.keys
	r.keys = nil
	return out
}

func TestDefaults(t *testing.T) {
	s := New()

	assert.True(t, s.Bool(KeyAutofetch))
	assert.Equal(t, 3*time.Minute, s.Duration(KeyAutofetchPeriod))
	assert.False(t, s.Bool(KeyEnableSmartCommit))
	assert.True(t, s.Bool(KeyConfirmSync))
	assert.True(t, s.Bool(KeyDecorationsEnabled))
	assert.Equal(t, 500*time.Millisecond, s.Duration(KeyIgnoreDebounce))
	assert.Equal(t, CheckoutAll, s.CheckoutType())
	assert.Empty(t, s.Path())
}

func TestLoadReadsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte(`autofetch: false
autofetchPeriod: 10m
checkoutType: local
decorations:
  enabled: false
`), 0o644))

	s, err := Load(testPath, WithFs(fs))
	require.NoError(t, err)

	assert.False(t, s.Bool(KeyAutofetch))
	assert.Equal(t, 10*time.Minute, s.Duration(KeyAutofetchPeriod))
	assert.Equal(t, CheckoutLocal, s.CheckoutType())
	assert.False(t, s.Bool(KeyDecorationsEnabled))
	assert.True(t, s.Bool(KeyConfirmSync), "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(testPath, WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.True(t, s.Bool(KeyAutofetch))
	assert.Equal(t, testPath, s.Path())
}

func TestLoadInvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("autofetch: [unterminated"), 0o644))

	_, err := Load(testPath, WithFs(fs))
	require.Error(t, err)
}

func TestSetPersistsAndNotifies(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Load(testPath, WithFs(fs))
	require.NoError(t, err)

	rec := &keyRecorder{}
	unsubscribe := s.OnDidChange(rec.record)

	require.NoError(t, s.Set(KeyEnableSmartCommit, true))
	assert.Equal(t, []string{KeyEnableSmartCommit}, rec.take())
	assert.True(t, s.Bool(KeyEnableSmartCommit))

	require.NoError(t, s.Set(KeyEnableSmartCommit, true))
	assert.Empty(t, rec.take(), "unchanged value")

	reloaded, err := Load(testPath, WithFs(fs))
	require.NoError(t, err)
	assert.True(t, reloaded.Bool(KeyEnableSmartCommit))

	unsubscribe()
	require.NoError(t, s.Set(KeyConfirmSync, false))
	assert.Empty(t, rec.take())
}

func TestSetInMemory(t *testing.T) {
	s := New()
	rec := &keyRecorder{}
	s.OnDidChange(rec.record)

	require.NoError(t, s.Set(KeyDecorationsEnabled, false))
	assert.False(t, s.Bool(KeyDecorationsEnabled))
	assert.Equal(t, []string{KeyDecorationsEnabled}, rec.take())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("STAGEHAND_CONFIRMSYNC", "false")
	t.Setenv("STAGEHAND_LOG_LEVEL", "debug")

	s := New()
	assert.False(t, s.Bool(KeyConfirmSync))
	assert.Equal(t, "debug", s.String(KeyLogLevel))
}

func TestUnknownCheckoutType(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(KeyCheckoutType, "everything"))
	assert.Equal(t, CheckoutAll, s.CheckoutType())
}
