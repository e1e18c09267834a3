package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gg3d"
)

// Factory creates a render target of the given size.
type Factory func(width, height int) (Target, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	// GPU first, software is the fallback.
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open creates a target from the named backend.
func Open(name string, width, height int) (Target, error) {
	if err := ValidateSize(width, height); err != nil {
		return nil, err
	}
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}

	t, err := factory(width, height)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	gg3d.Logger().Info("backend: target opened", "backend", name, "width", width, "height", height)
	return t, nil
}

// OpenDefault opens the best available backend based on priority.
// Priority order: wgpu > software, then any other registered backend in
// name order. A backend that fails to open is logged and skipped.
func OpenDefault(width, height int) (Target, error) {
	if err := ValidateSize(width, height); err != nil {
		return nil, err
	}

	var errs []error
	for _, name := range candidates() {
		t, err := Open(name, width, height)
		if err == nil {
			return t, nil
		}
		gg3d.Logger().Warn("backend: open failed, trying next", "backend", name, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// candidates returns the registered names in selection order.
func candidates() []string {
	registered := Available()
	names := make([]string, 0, len(registered))
	for _, name := range backendPriority {
		if slices.Contains(registered, name) {
			names = append(names, name)
		}
	}
	for _, name := range registered {
		if !slices.Contains(backendPriority, name) {
			names = append(names, name)
		}
	}
	return names
}
