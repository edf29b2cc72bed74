package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/logger"
	"github.com/harunnryd/lectern/internal/model/contract"
)

// Result is the outcome of one dispatched invocation. Expected failures
// such as an unknown tool or bad input come back with IsError set.
type Result struct {
	Content  string
	IsError  bool
	Delivery contract.DeliveryMode
}

// PassThrough reports whether the content must reach the caller unmodified.
func (r Result) PassThrough() bool {
	return !r.IsError && r.Delivery == contract.DeliveryPassThrough
}

// Dispatcher routes invocations to registry tools and records the sources
// each tool reported most recently.
type Dispatcher struct {
	registry *Registry

	mu      sync.Mutex
	sources map[string][]Source
}

func (d *Dispatcher) Definitions() []contract.ToolDef {
	return d.registry.Definitions()
}

// Execute runs the named tool. Errors returned by the tool itself are passed
// through untouched for the caller to normalize.
func (d *Dispatcher) Execute(ctx context.Context, name string, input json.RawMessage) (Result, error) {
	traceID := logger.GetTraceID(ctx)

	t, ok := d.registry.Get(name)
	if !ok {
		err := fmt.Errorf("%w: %s", lecternErrors.ErrToolNotFound, name)
		slog.Warn("Tool lookup failed", "tool", name, "error", err, "trace_id", traceID)
		return Result{
			Content: fmt.Sprintf("Tool '%s' not found", name),
			IsError: true,
		}, nil
	}
	def := t.Definition()

	if err := ValidateInput(def.InputSchema, input); err != nil {
		slog.Warn("Tool input validation failed", "tool", def.Name, "error", err, "trace_id", traceID)
		return Result{
			Content: fmt.Sprintf("Invalid input for tool '%s': %v", def.Name, err),
			IsError: true,
		}, nil
	}

	start := time.Now()
	slog.Info("Executing tool", "tool", def.Name, "trace_id", traceID)

	out, err := t.Execute(ctx, input)

	duration := time.Since(start)
	if err != nil {
		slog.Error("Tool execution failed", "tool", def.Name, "error", err, "duration", duration, "trace_id", traceID)
		return Result{}, err
	}

	if len(out.Sources) > 0 {
		d.mu.Lock()
		d.sources[def.Name] = append([]Source(nil), out.Sources...)
		d.mu.Unlock()
	}

	slog.Info("Tool execution success", "tool", def.Name, "duration", duration, "sources", len(out.Sources), "trace_id", traceID)
	return Result{Content: out.Text, Delivery: def.Delivery}, nil
}

// CollectSources returns the latest sources of every tool, concatenated in
// registration order.
func (d *Dispatcher) CollectSources() []Source {
	d.mu.Lock()
	defer d.mu.Unlock()

	var all []Source
	for _, name := range d.registry.Names() {
		all = append(all, d.sources[name]...)
	}
	return all
}

func (d *Dispatcher) ResetSources() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sources = make(map[string][]Source)
}

// Failure converts an unexpected tool error into an error-flagged result.
func Failure(err error) Result {
	return Result{
		Content: fmt.Sprintf("Error: Tool execution failed - %v", err),
		IsError: true,
	}
}
