package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds an adapter that logs to logger.
type Factory func(logger *slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes an adapter available under name, case-insensitively.
// Adapters call it from init. Registering a name twice panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(name)
	if factory == nil {
		panic("adapter: Register factory is nil for " + key)
	}
	if _, dup := factories[key]; dup {
		panic("adapter: Register called twice for " + key)
	}
	factories[key] = factory
}

// New builds the adapter registered as typ. A nil logger discards output.
func New(typ string, logger *slog.Logger) (Adapter, error) {
	if typ == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	registryMu.RLock()
	factory, ok := factories[strings.ToLower(typ)]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: typ, Available: ListAdapters()}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger.With(slog.String("adapter", strings.ToLower(typ)))), nil
}

// ListAdapters returns the registered adapter names in order.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether an adapter is registered under name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[strings.ToLower(name)]
	return ok
}

// UnknownAdapterError is returned for a target type with no adapter.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %s\nHint: check target.type in sqltree.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
