package gpu

import (
	"fmt"
	"sync"
)

// DeviceFactory creates a new device instance.
type DeviceFactory func() (Device, error)

// registry holds registered device drivers.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]DeviceFactory)
	// Priority order for driver selection (first that opens wins).
	// The wgpu driver is preferred when its package is linked in;
	// software is the always-available fallback.
	driverPriority = []string{DriverWGPU, DriverSoftware}
)

// Register registers a device driver with the given name.
// This is typically called from init() functions in driver packages.
// If a driver with the same name is already registered, it is replaced.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// Unregister removes a driver from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns a list of registered driver names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Open opens a device by driver name.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := drivers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("gpu: driver %q is not registered", name)
	}
	return factory()
}

// Default opens the best available device based on priority.
// Drivers that fail to open are skipped; the software driver never fails.
func Default() (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var firstErr error
	for _, name := range driverPriority {
		factory, ok := drivers[name]
		if !ok {
			continue
		}
		dev, err := factory()
		if err == nil && dev != nil {
			return dev, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("gpu: no device available: %w", firstErr)
	}
	return nil, fmt.Errorf("gpu: no device drivers registered")
}
