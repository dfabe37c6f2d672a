package script

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

// Ensure CELEngine implements the interface.
var _ Engine = (*CELEngine)(nil)

// CELEngine evaluates Common Expression Language scripts.
//
// Scripts see the variables reference, metadata (map of string lists),
// content, section and parse_state. Compiled programs are cached per
// script source.
type CELEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELEngine creates the CEL engine with the strings extension.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("reference", cel.StringType),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
		cel.Variable("content", cel.StringType),
		cel.Variable("section", cel.IntType),
		cel.Variable("parse_state", cel.StringType),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &CELEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Name returns "cel".
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile checks and caches a script.
func (e *CELEngine) Compile(source string) error {
	_, err := e.program(source)
	return err
}

// Eval runs a script.
func (e *CELEngine) Eval(ctx context.Context, source string, in Input) (any, error) {
	program, err := e.program(source)
	if err != nil {
		return nil, err
	}

	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string][]string{}
	}
	out, _, err := program.ContextEval(ctx, map[string]any{
		"reference":   in.Reference,
		"metadata":    metadata,
		"content":     in.Content,
		"section":     int64(in.Section),
		"parse_state": in.ParseState,
	})
	if err != nil {
		return nil, fmt.Errorf("CEL evaluation failed: %w", err)
	}
	return native(out)
}

// program returns the cached program for source, compiling it once.
func (e *CELEngine) program(source string) (cel.Program, error) {
	e.mu.RLock()
	if p, ok := e.programs[source]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.programs[source]; ok {
		return p, nil
	}

	ast, issues := e.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}
	p, err := e.env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	e.programs[source] = p
	return p, nil
}

// native converts a CEL value into plain Go values.
func native(v ref.Val) (any, error) {
	switch val := v.(type) {
	case types.String:
		return string(val), nil
	case types.Bool:
		return bool(val), nil
	case types.Int:
		return int64(val), nil
	case types.Uint:
		return uint64(val), nil
	case types.Double:
		return float64(val), nil
	case types.Null:
		return nil, nil
	case traits.Mapper:
		out := make(map[string]any)
		for it := val.Iterator(); it.HasNext() == types.True; {
			key := it.Next()
			k, ok := key.(types.String)
			if !ok {
				return nil, fmt.Errorf("CEL map key must be string, got %T", key)
			}
			item, err := native(val.Get(key))
			if err != nil {
				return nil, err
			}
			out[string(k)] = item
		}
		return out, nil
	case traits.Lister:
		var out []any
		for it := val.Iterator(); it.HasNext() == types.True; {
			item, err := native(it.Next())
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported CEL result type %T", v)
}
