package workbox

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultDriver is used by Open when Config.Type is empty.
const DefaultDriver = "local"

// Config holds the storage engine configuration.
type Config struct {
	// Type is the driver name: "local", "rclone", etc.
	Type string `json:"type" yaml:"type"`

	// BasePath is the root directory for file-based storage engines, or
	// the remote for the rclone driver when Options["remote"] is unset.
	BasePath string `json:"basePath,omitempty" yaml:"basePath,omitempty"`

	// Options holds driver-specific configuration.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// StringOption returns Options[key] when it is a non-empty string, and
// fallback otherwise.
func (c *Config) StringOption(key, fallback string) string {
	if v, ok := c.Options[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// Factory is a function that creates a [StorageEngine] from a [Config].
type Factory func(cfg *Config) (StorageEngine, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a storage driver available by the provided name.
// This is typically called from the driver package's init() function.
// It panics if called twice with the same name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("workbox: driver %q already registered", name))
	}
	factories[name] = factory
}

// Drivers returns a sorted list of all registered driver names.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List is an alias for [Drivers].
func List() []string {
	return Drivers()
}

// Open creates a new [StorageEngine] using the registered driver specified
// in cfg.Type, or [DefaultDriver] when it is empty.
func Open(cfg *Config) (StorageEngine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workbox: config must not be nil")
	}

	name := cfg.Type
	if name == "" {
		name = DefaultDriver
	}

	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("workbox: unknown driver %q (forgotten import?)", name)
	}

	return factory(cfg)
}

// MustOpen is like [Open] but panics on error.
func MustOpen(cfg *Config) StorageEngine {
	engine, err := Open(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}
