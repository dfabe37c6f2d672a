// Package script evaluates user scripts for script filters and
// transformers. Engines are looked up by name in a Registry.
package script

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// DefaultEngine is used when a handler names no engine.
const DefaultEngine = "cel"

// Input is what a script sees of the document being processed.
type Input struct {
	Reference  string
	Metadata   map[string][]string
	Content    string
	Section    int
	ParseState string
}

// Engine compiles and evaluates scripts.
// Engines must be safe for concurrent use.
type Engine interface {
	// Name returns the registry name of the engine.
	Name() string

	// Compile checks a script. Called once when a handler is built.
	Compile(source string) error

	// Eval runs a script and returns its result as plain Go values
	// (string, bool, int64, float64, []any, map[string]any).
	Eval(ctx context.Context, source string, in Input) (any, error)
}

// Registry maps engine names to engines.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// NewDefaultRegistry creates a registry holding the CEL engine.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	cel, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	r.Register(cel)
	return r, nil
}

// Register adds or replaces an engine.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Name()] = e
}

// Get returns the engine registered under name. An empty name selects
// DefaultEngine.
func (r *Registry) Get(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("script engine %q: %w", name, domain.ErrUnsupportedType)
	}
	return e, nil
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
