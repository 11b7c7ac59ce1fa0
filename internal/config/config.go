// Package config is the process-wide settings source.
//
// Settings come from a YAML file, STAGEHAND_* environment variables and
// built-in defaults, in that order of precedence after explicit Set calls.
// Observers registered with OnDidChange are told the name of every setting
// whose effective value changed, whether through Set or because the file
// was edited while watched.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Setting names.
const (
	KeyAutofetch           = "autofetch"
	KeyAutofetchPeriod     = "autofetchPeriod"
	KeyEnableSmartCommit   = "enableSmartCommit"
	KeyEnableCommitSigning = "enableCommitSigning"
	KeyConfirmSync         = "confirmSync"
	KeyCheckoutType        = "checkoutType"
	KeyDecorationsEnabled  = "decorations.enabled"
	KeyIgnoreDebounce      = "ignoreDebounce"
	KeyLogFile             = "log.file"
	KeyLogLevel            = "log.level"
)

// CheckoutType values select which references the checkout picker lists.
const (
	CheckoutAll    = "all"
	CheckoutLocal  = "local"
	CheckoutTags   = "tags"
	CheckoutRemote = "remote"
)

// EnvPrefix is prepended to environment variable overrides.
const EnvPrefix = "STAGEHAND"

var defaults = map[string]any{
	KeyAutofetch:           true,
	KeyAutofetchPeriod:     3 * time.Minute,
	KeyEnableSmartCommit:   false,
	KeyEnableCommitSigning: false,
	KeyConfirmSync:         true,
	KeyCheckoutType:        CheckoutAll,
	KeyDecorationsEnabled:  true,
	KeyIgnoreDebounce:      500 * time.Millisecond,
	KeyLogFile:             "",
	KeyLogLevel:            "info",
}

// Source reads and writes settings. It is safe for concurrent use.
type Source struct {
	v    *viper.Viper
	fs   afero.Fs
	path string
	log  zerolog.Logger

	mu        sync.Mutex
	last      map[string]any
	observers map[int]func(string)
	nextObs   int
}

// Option configures a Source.
type Option func(*Source)

// WithFs makes the source read and write its file through fs.
func WithFs(afs afero.Fs) Option {
	return func(s *Source) {
		s.fs = afs
		s.v.SetFs(afs)
	}
}

// WithLogger sets the source logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Source) { s.log = l }
}

// New returns a source with defaults and environment overrides only.
// Set changes it in memory.
func New(opts ...Option) *Source {
	s := &Source{
		v:         viper.New(),
		fs:        afero.NewOsFs(),
		log:       zerolog.Nop(),
		observers: make(map[int]func(string)),
	}
	for key, value := range defaults {
		s.v.SetDefault(key, value)
	}
	s.v.SetEnvPrefix(EnvPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	s.v.AutomaticEnv()

	for _, opt := range opts {
		opt(s)
	}
	s.last = s.snapshot()
	return s
}

// Load returns a source backed by the YAML file at path, or by
// DefaultPath when path is empty. A missing file is not an error: the
// source starts from defaults and Set creates the file.
func Load(path string, opts ...Option) (*Source, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := New(opts...)
	s.path = path
	s.v.SetConfigFile(path)
	s.v.SetConfigType("yaml")

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		s.log.Debug().Str("path", path).Msg("config file not found, using defaults")
	}
	s.last = s.snapshot()
	return s, nil
}

// DefaultPath is $XDG_CONFIG_HOME/stagehand/config.yaml, or the platform
// user config directory when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		d, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locate config dir: %w", err)
		}
		dir = d
	}
	return filepath.Join(dir, "stagehand", "config.yaml"), nil
}

// Path returns the backing file, empty for an in-memory source.
func (s *Source) Path() string { return s.path }

// Get returns the raw value of key.
func (s *Source) Get(key string) any { return s.v.Get(key) }

// Bool returns key as a bool.
func (s *Source) Bool(key string) bool { return s.v.GetBool(key) }

// String returns key as a string.
func (s *Source) String(key string) string { return s.v.GetString(key) }

// Duration returns key as a duration.
func (s *Source) Duration(key string) time.Duration { return s.v.GetDuration(key) }

// CheckoutType returns the checkoutType setting, falling back to
// CheckoutAll for unknown values.
func (s *Source) CheckoutType() string {
	switch t := s.String(KeyCheckoutType); t {
	case CheckoutAll, CheckoutLocal, CheckoutTags, CheckoutRemote:
		return t
	default:
		return CheckoutAll
	}
}

// Set changes key, persists the file when the source has one, and
// notifies observers.
func (s *Source) Set(key string, value any) error {
	s.v.Set(key, value)

	if s.path != "" {
		if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err := s.v.WriteConfigAs(s.path); err != nil {
			return fmt.Errorf("write config %s: %w", s.path, err)
		}
	}

	s.changed()
	return nil
}

// OnDidChange registers fn to be called with the name of every setting
// whose value changes.
func (s *Source) OnDidChange(fn func(key string)) (unsubscribe func()) {
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

// Watch reloads the file whenever it changes on disk. It is a no-op for
// an in-memory source.
func (s *Source) Watch() {
	if s.path == "" {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.log.Debug().Str("path", e.Name).Str("op", e.Op.String()).Msg("config changed")
		s.changed()
	})
	s.v.WatchConfig()
}

// changed diffs the known settings against the last snapshot and notifies
// observers of each key that moved.
func (s *Source) changed() {
	next := s.snapshot()

	s.mu.Lock()
	var keys []string
	for key, value := range next {
		if !reflect.DeepEqual(s.last[key], value) {
			keys = append(keys, key)
		}
	}
	s.last = next
	fns := make([]func(string), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, key := range keys {
		for _, fn := range fns {
			fn(key)
		}
	}
}

func (s *Source) snapshot() map[string]any {
	out := make(map[string]any, len(defaults))
	for key := range defaults {
		out[key] = s.v.Get(key)
	}
	return out
}
