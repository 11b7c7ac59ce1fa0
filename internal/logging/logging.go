// Package logging builds the process logger.
//
// Structured JSON goes to a size-rotated log file, the one the "Open Git
// Log" action points at. Verbose runs additionally get a human-readable
// console stream on stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 10
	MaxBackups = 3
	MaxAgeDays = 28
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty means DefaultFile().
	File string

	// Level is a zerolog level name. Empty means info.
	Level string

	// Verbose adds a console writer on Console.
	Verbose bool

	// Console receives verbose output, os.Stderr when nil.
	Console io.Writer
}

// Logger is the process logger plus the rotating file behind it.
type Logger struct {
	zerolog.Logger

	file *lumberjack.Logger
}

// New builds a logger from opts.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
		level = l
	}
	if opts.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	path := opts.File
	if path == "" {
		path = DefaultFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
	}

	var w io.Writer = file
	if opts.Verbose {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		w = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	}

	return &Logger{
		Logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
		file:   file,
	}, nil
}

// Path returns the log file path.
func (l *Logger) Path() string { return l.file.Filename }

// Close flushes and closes the log file.
func (l *Logger) Close() error { return l.file.Close() }

// DefaultFile is stagehand.log under the user cache directory, or the
// temp directory when there is none.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "stagehand", "stagehand.log")
}
