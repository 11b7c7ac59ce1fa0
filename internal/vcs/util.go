package vcs

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ===================
// Output Parsing Utilities
// ===================

// ParseLines splits command output into non-empty lines.
// This is a common pattern for parsing VCS command output.
func ParseLines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	lines := strings.Split(string(output), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}

// ParseNul splits -z style output into its NUL-terminated fields.
func ParseNul(output []byte) []string {
	if len(output) == 0 {
		return nil
	}
	fields := strings.Split(string(output), "\x00")
	if fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// ===================
// Path Utilities
// ===================

// SanitizePath ensures a path is absolute and clean.
// Relative paths are resolved relative to the given base directory.
func SanitizePath(path string, baseDir string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	if baseDir == "" {
		return "", fmt.Errorf("cannot resolve relative path without base directory")
	}

	return filepath.Clean(filepath.Join(baseDir, path)), nil
}

// RelativePath returns the slash-separated path of target inside base.
// Returns an error if target is outside base.
func RelativePath(base, target string) (string, error) {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	relPath, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("cannot determine relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", target, base)
	}

	return filepath.ToSlash(relPath), nil
}

// IsSubPath returns true if target is inside base directory.
func IsSubPath(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	relPath, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}

	// If relative path starts with "..", it's outside base
	return relPath != ".." && !strings.HasPrefix(relPath, ".."+string(filepath.Separator))
}

// ===================
// Error Utilities
// ===================

// IsExitError returns true if the error is an exit error with non-zero status.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// GetExitCode returns the exit code from an error, or -1 if not an exit error.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
