package vcs

import (
	"os/exec"
	"path/filepath"
	"testing"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []string
	}{
		{
			name:     "empty input",
			input:    []byte(""),
			expected: nil,
		},
		{
			name:     "single line",
			input:    []byte("line1"),
			expected: []string{"line1"},
		},
		{
			name:     "multiple lines",
			input:    []byte("line1\nline2\nline3"),
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "lines with whitespace",
			input:    []byte("  line1  \n  line2  \n  line3  "),
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "empty lines filtered",
			input:    []byte("line1\n\nline2\n\n\nline3"),
			expected: []string{"line1", "line2", "line3"},
		},
		{
			name:     "trailing newline",
			input:    []byte("line1\nline2\n"),
			expected: []string{"line1", "line2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLines(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("Expected %d lines, got %d", len(tt.expected), len(result))
				return
			}

			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("Line %d: expected '%s', got '%s'", i, tt.expected[i], line)
				}
			}
		})
	}
}

func TestParseNul(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []string
	}{
		{name: "empty", input: nil, expected: nil},
		{name: "single", input: []byte("a.txt\x00"), expected: []string{"a.txt"}},
		{name: "spaces kept", input: []byte(" M a b.txt\x00?? c\x00"), expected: []string{" M a b.txt", "?? c"}},
		{name: "unterminated", input: []byte("a\x00b"), expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseNul(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected %d fields, got %d (%q)", len(tt.expected), len(result), result)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("field %d: expected %q, got %q", i, tt.expected[i], result[i])
				}
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		baseDir  string
		expected string
		wantErr  bool
	}{
		{
			name:    "empty path",
			path:    "",
			baseDir: "/base",
			wantErr: true,
		},
		{
			name:     "absolute path",
			path:     "/absolute/path",
			baseDir:  "/base",
			expected: "/absolute/path",
			wantErr:  false,
		},
		{
			name:     "relative path",
			path:     "relative/path",
			baseDir:  "/base",
			expected: "/base/relative/path",
			wantErr:  false,
		},
		{
			name:    "relative path without base",
			path:    "relative/path",
			baseDir: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SanitizePath(tt.path, tt.baseDir)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			// Normalize expected path for comparison
			expected := filepath.Clean(tt.expected)
			if result != expected {
				t.Errorf("Expected '%s', got '%s'", expected, result)
			}
		})
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		target   string
		expected string
		wantErr  bool
	}{
		{
			name:     "same directory",
			base:     "/base",
			target:   "/base",
			expected: ".",
		},
		{
			name:     "child directory",
			base:     "/base",
			target:   "/base/child",
			expected: "child",
		},
		{
			name:     "nested child",
			base:     "/base",
			target:   "/base/child/nested",
			expected: "child/nested",
		},
		{
			name:    "parent directory",
			base:    "/base/child",
			target:  "/base",
			wantErr: true,
		},
		{
			name:    "sibling directory",
			base:    "/base/dir1",
			target:  "/base/dir2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RelativePath(tt.base, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %q", result)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		target   string
		expected bool
	}{
		{
			name:     "same directory",
			base:     "/base",
			target:   "/base",
			expected: true,
		},
		{
			name:     "child directory",
			base:     "/base",
			target:   "/base/child",
			expected: true,
		},
		{
			name:     "nested child",
			base:     "/base",
			target:   "/base/child/nested",
			expected: true,
		},
		{
			name:     "parent directory",
			base:     "/base/child",
			target:   "/base",
			expected: false,
		},
		{
			name:     "sibling directory",
			base:     "/base/dir1",
			target:   "/base/dir2",
			expected: false,
		},
		{
			name:     "shared name prefix",
			base:     "/base",
			target:   "/basement",
			expected: false,
		},
		{
			name:     "completely different",
			base:     "/base",
			target:   "/other",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsSubPath(tt.base, tt.target)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsExitError(t *testing.T) {
	// Test with nil error
	if IsExitError(nil) {
		t.Error("Expected false for nil error")
	}

	// Test with successful command
	err := exec.Command("echo", "test").Run()
	if IsExitError(err) {
		t.Error("Expected false for successful command")
	}

	// Test with failed command
	err = exec.Command("sh", "-c", "exit 1").Run()
	if !IsExitError(err) {
		t.Error("Expected true for failed command")
	}
}

func TestGetExitCode(t *testing.T) {
	// Test with nil error
	if code := GetExitCode(nil); code != 0 {
		t.Errorf("Expected exit code 0 for nil error, got %d", code)
	}

	// Test with successful command
	err := exec.Command("echo", "test").Run()
	if code := GetExitCode(err); code != 0 {
		t.Errorf("Expected exit code 0 for successful command, got %d", code)
	}

	// Test with failed command
	err = exec.Command("sh", "-c", "exit 42").Run()
	if code := GetExitCode(err); code != 42 {
		t.Errorf("Expected exit code 42, got %d", code)
	}
}
