package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harunnryd/lectern/internal/retrieval"
)

// BuiltinOptions carries runtime dependencies needed by built-in tool factories.
type BuiltinOptions struct {
	Backend retrieval.Backend
}

type BuiltinFactory func(options BuiltinOptions) (Tool, error)

var builtinCatalog = struct {
	mu        sync.RWMutex
	names     []string
	factories map[string]BuiltinFactory
}{
	factories: map[string]BuiltinFactory{},
}

// RegisterBuiltin registers a built-in tool factory under a tool name.
// Intended to be called in init() from built-in tool files.
func RegisterBuiltin(name string, factory BuiltinFactory) {
	normalized := NormalizeToolName(name)
	if normalized == "" {
		panic("tool: built-in name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("tool: built-in factory cannot be nil (%s)", normalized))
	}

	builtinCatalog.mu.Lock()
	defer builtinCatalog.mu.Unlock()

	if _, exists := builtinCatalog.factories[normalized]; exists {
		panic(fmt.Sprintf("tool: built-in already registered: %s", normalized))
	}
	builtinCatalog.factories[normalized] = factory
	builtinCatalog.names = append(builtinCatalog.names, normalized)
}

// BuiltinNames returns all registered built-in names in sorted order.
func BuiltinNames() []string {
	builtinCatalog.mu.RLock()
	defer builtinCatalog.mu.RUnlock()

	names := append([]string(nil), builtinCatalog.names...)
	sort.Strings(names)
	return names
}

// RegisterBuiltins instantiates every built-in and registers it, in sorted name order.
func (r *Registry) RegisterBuiltins(options BuiltinOptions) error {
	if options.Backend == nil {
		return fmt.Errorf("built-in tools require a retrieval backend")
	}

	for _, name := range BuiltinNames() {
		builtinCatalog.mu.RLock()
		factory := builtinCatalog.factories[name]
		builtinCatalog.mu.RUnlock()

		t, err := factory(options)
		if err != nil {
			return fmt.Errorf("instantiate built-in %q: %w", name, err)
		}
		r.Register(t)
	}
	return nil
}
