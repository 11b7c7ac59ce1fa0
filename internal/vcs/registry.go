package vcs

import (
	"fmt"
	"sync"
)

// Constructor creates a Backend for a given repository root.
// Implementations register themselves with Register().
type Constructor func(repoRoot string) (Backend, error)

// constructors maps backend types to their constructors
var (
	constructors      = make(map[Type]Constructor)
	constructorsMutex sync.RWMutex
)

// Register registers a backend constructor.
// This is called from init() functions in implementation packages.
//
// Example:
//
//	func init() {
//	    vcs.Register(vcs.TypeGit, func(root string) (vcs.Backend, error) { return New(root) })
//	}
func Register(t Type, constructor Constructor) {
	constructorsMutex.Lock()
	defer constructorsMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("vcs: Register constructor is nil for type %s", t))
	}

	if _, exists := constructors[t]; exists {
		panic(fmt.Sprintf("vcs: Register called twice for type %s", t))
	}

	constructors[t] = constructor
}

// getConstructor retrieves the constructor for a backend type.
// Returns nil if the type is not registered.
func getConstructor(t Type) Constructor {
	constructorsMutex.RLock()
	defer constructorsMutex.RUnlock()
	return constructors[t]
}

// IsRegistered returns true if a constructor is registered for the given type.
func IsRegistered(t Type) bool {
	constructorsMutex.RLock()
	defer constructorsMutex.RUnlock()
	_, exists := constructors[t]
	return exists
}

// RegisteredTypes returns all registered backend types.
func RegisteredTypes() []Type {
	constructorsMutex.RLock()
	defer constructorsMutex.RUnlock()

	types := make([]Type, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	return types
}

// UnregisterAll clears all registered constructors.
// This is primarily useful for testing.
func UnregisterAll() {
	constructorsMutex.Lock()
	defer constructorsMutex.Unlock()
	constructors = make(map[Type]Constructor)
}
