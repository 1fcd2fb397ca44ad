package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prajeeshag/windgl/render"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	backendPriority = []string{WGPU, Soft}
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

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get opens a device from the named backend.
func Get(name string) (render.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory()
}

// Default opens a device from the best available backend.
// Priority order: wgpu > soft, then any other registered backend.
// Factory errors are logged and the next backend is tried.
func Default() (render.Device, error) {
	registryMu.RLock()
	ordered := make([]string, 0, len(backends))
	seen := make(map[string]bool, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)
	factories := make([]Factory, len(ordered))
	for i, name := range ordered {
		factories[i] = backends[name]
	}
	registryMu.RUnlock()

	for i, factory := range factories {
		dev, err := factory()
		if err != nil {
			render.Logger().Warn("backend unavailable", "backend", ordered[i], "err", err)
			continue
		}
		if dev != nil {
			render.Logger().Info("backend selected", "backend", ordered[i], "device", dev.Capabilities().Name)
			return dev, nil
		}
	}
	return nil, ErrBackendNotAvailable
}

// MustDefault returns the default device or panics.
func MustDefault() render.Device {
	dev, err := Default()
	if err != nil {
		panic(err)
	}
	return dev
}
