package vcs

import (
	"strings"
	"sync/atomic"
	"testing"
)

// Use a test-only type to avoid conflicting with real registrations
const (
	testTypeA Type = "test-type-a"
	testTypeB Type = "test-type-b"
)

func TestFactoryWithMockRegistration(t *testing.T) {
	// Register test implementations (won't conflict with real git)
	Register(testTypeA, newMockBackend(testTypeA))
	Register(testTypeB, newMockBackend(testTypeB))

	tests := []struct {
		name         string
		implType     Type
		repoRoot     string
		wantErr      bool
		expectedName Type
	}{
		{
			name:         "test type A implementation",
			implType:     testTypeA,
			repoRoot:     "/test/a/repo",
			expectedName: testTypeA,
		},
		{
			name:         "test type B implementation",
			implType:     testTypeB,
			repoRoot:     "/test/b/repo",
			expectedName: testTypeB,
		},
		{
			name:     "unregistered type",
			implType: "unknown",
			repoRoot: "/test/unknown/repo",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewFactory()
			result := &DetectionResult{
				Type:     tt.implType,
				RepoRoot: tt.repoRoot,
				VCSDir:   tt.repoRoot + "/.git",
			}

			b, err := factory.createImplementation(tt.implType, result)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if b.Name() != tt.expectedName {
				t.Errorf("Expected backend name '%s', got '%s'", tt.expectedName, b.Name())
			}

			if b.RepoRoot() != tt.repoRoot {
				t.Errorf("Expected repo root '%s', got '%s'", tt.repoRoot, b.RepoRoot())
			}
		})
	}
}

func TestFactoryErrorMessageForUnregistered(t *testing.T) {
	factory := NewFactory()
	result := &DetectionResult{
		Type:     "definitely-not-registered",
		RepoRoot: "/test/repo",
	}

	b, err := factory.createImplementation("definitely-not-registered", result)
	if err == nil {
		t.Fatal("Expected error for unregistered type")
	}
	if b != nil {
		t.Error("Expected nil backend on error")
	}
	if !strings.Contains(err.Error(), "definitely-not-registered") {
		t.Errorf("Error should name the missing type, got %q", err.Error())
	}
}

// fixedDetector resolves every path to root and counts calls
func fixedDetector(root string, typ Type, calls *int64) func(string) (*DetectionResult, error) {
	return func(string) (*DetectionResult, error) {
		atomic.AddInt64(calls, 1)
		return &DetectionResult{Type: typ, RepoRoot: root}, nil
	}
}

func TestFactoryCache(t *testing.T) {
	typeName := uniqueTestType("cache-test")
	var built int64
	Register(typeName, func(root string) (Backend, error) {
		atomic.AddInt64(&built, 1)
		return &mockBackend{name: typeName, repoRoot: root}, nil
	})

	var detected int64
	factory := NewFactory(WithDetector(fixedDetector("/repo", typeName, &detected)))

	first, err := factory.Create("/repo/a.txt")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	second, err := factory.Create("/repo/sub/b.txt")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if first != second {
		t.Error("Expected cached backend for the same root")
	}
	if built != 1 {
		t.Errorf("constructor called %d times, want 1", built)
	}

	factory.Forget("/repo")
	third, err := factory.Create("/repo/c.txt")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if third == first {
		t.Error("Expected a new backend after Forget()")
	}
}

func TestFactoryOptions(t *testing.T) {
	typeName := uniqueTestType("forced")
	Register(typeName, newMockBackend(typeName))

	var detected int64
	factory := NewFactory(
		WithType(typeName),
		WithCache(false),
		WithDetector(fixedDetector("/forced", TypeGit, &detected)),
	)

	if factory.enableCache {
		t.Error("WithCache(false) did not disable caching")
	}

	b, err := factory.Create("/forced")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if b.Name() != typeName {
		t.Errorf("Name() = %v, want %v", b.Name(), typeName)
	}

	again, err := factory.Create("/forced")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if again == b {
		t.Error("Expected distinct backends with caching disabled")
	}
}
