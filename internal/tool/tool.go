package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/harunnryd/lectern/internal/model/contract"
)

// Tool represents an executable capability.
type Tool interface {
	Definition() contract.ToolDef
	Execute(ctx context.Context, input json.RawMessage) (Output, error)
}

// Source is a citation for content a tool returned.
type Source struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// Output is what a tool produced for one invocation.
type Output struct {
	Text    string
	Sources []Source
}

// Registry holds all available tools in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds t under its definition name. A later tool with the same
// name replaces the earlier one and keeps its position.
func (r *Registry) Register(t Tool) {
	name := NormalizeToolName(t.Definition().Name)
	if name == "" {
		panic("tool: empty tool name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		slog.Warn("Tool already registered, replacing", "tool", name)
	} else {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[NormalizeToolName(name)]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []contract.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]contract.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// NewDispatcher returns a dispatcher with its own source accumulator.
// Use one per generate call.
func (r *Registry) NewDispatcher() *Dispatcher {
	return &Dispatcher{
		registry: r,
		sources:  make(map[string][]Source),
	}
}

func NormalizeToolName(name string) string {
	return strings.TrimSpace(name)
}
