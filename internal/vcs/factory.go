package vcs

import (
	"fmt"
	"sync"
)

// Factory creates backends for repository roots.
//
// The factory caches one backend per root so that repeated lookups for
// paths inside the same repository share an instance.
type Factory struct {
	// forcedType skips detection and always uses this backend type
	forcedType Type

	// enableCache enables caching of backend instances
	enableCache bool

	// detect locates the repository enclosing a path
	detect func(path string) (*DetectionResult, error)

	mu    sync.Mutex
	cache map[string]Backend
}

// FactoryOption configures the factory
type FactoryOption func(*Factory)

// NewFactory creates a new backend factory with the specified options.
//
// Default behavior:
//   - Caching enabled
//   - Detection by walking up to the nearest .git
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		enableCache: true,
		detect:      DetectWithAvailability,
		cache:       make(map[string]Backend),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithType forces the backend type instead of using the detected one
func WithType(t Type) FactoryOption {
	return func(f *Factory) {
		f.forcedType = t
	}
}

// WithCache enables or disables instance caching
func WithCache(enabled bool) FactoryOption {
	return func(f *Factory) {
		f.enableCache = enabled
	}
}

// WithDetector replaces repository detection
func WithDetector(detect func(path string) (*DetectionResult, error)) FactoryOption {
	return func(f *Factory) {
		f.detect = detect
	}
}

// Create returns the backend for the repository containing path.
//
// The factory will:
//  1. Detect the repository root enclosing path
//  2. Return the cached backend for that root (if caching enabled)
//  3. Otherwise create one through the registered constructor
func (f *Factory) Create(path string) (Backend, error) {
	result, err := f.detect(path)
	if err != nil {
		return nil, err
	}

	if f.enableCache {
		f.mu.Lock()
		cached, ok := f.cache[result.RepoRoot]
		f.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	implType := result.Type
	if f.forcedType != "" {
		implType = f.forcedType
	}

	b, err := f.createImplementation(implType, result)
	if err != nil {
		return nil, err
	}

	if f.enableCache {
		f.mu.Lock()
		f.cache[result.RepoRoot] = b
		f.mu.Unlock()
	}

	return b, nil
}

// createImplementation creates the backend using the constructor registry.
func (f *Factory) createImplementation(implType Type, result *DetectionResult) (Backend, error) {
	constructor := getConstructor(implType)
	if constructor == nil {
		return nil, fmt.Errorf("no registered constructor for VCS type: %s (available: %v)", implType, RegisteredTypes())
	}

	b, err := constructor(result.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", implType, err)
	}

	return b, nil
}

// Forget drops the cached backend for root.
func (f *Factory) Forget(root string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, root)
}
