// Package registry builds handlers from configuration.
package registry

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/custodia-labs/importer/internal/config"
	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/restrict"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// BuilderFunc creates a handler from resolved common settings and
// type-specific params parsed from user config.
type BuilderFunc func(common handlers.Common, params map[string]any) (driven.Handler, error)

// Registry maps handler kinds and types to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

func key(kind, typ string) string {
	return kind + "/" + typ
}

// Register adds a builder for a handler kind and type.
func (r *Registry) Register(kind, typ string, builder BuilderFunc) {
	r.builders[key(kind, typ)] = builder
}

// Has reports whether a builder is registered.
func (r *Registry) Has(kind, typ string) bool {
	_, ok := r.builders[key(kind, typ)]
	return ok
}

// Names returns registered builders as sorted kind/type pairs.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the handler declared by cfg. maxReadSize applies when cfg
// does not set its own.
func (r *Registry) Build(cfg config.HandlerConfig, maxReadSize int) (driven.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	builder, ok := r.builders[key(cfg.Kind, cfg.Type)]
	if !ok {
		return nil, &domain.ConfigurationError{
			Handler: cfg.DisplayName(),
			Param:   "type",
			Err:     fmt.Errorf("unknown %s type %q: %w", cfg.Kind, cfg.Type, domain.ErrUnsupportedType),
		}
	}

	common, err := resolveCommon(cfg, maxReadSize)
	if err != nil {
		return nil, err
	}
	return builder(common, cfg.Params)
}

// BuildAll creates the handlers of one stage in order.
func (r *Registry) BuildAll(cfgs []config.HandlerConfig, maxReadSize int) ([]driven.Handler, error) {
	out := make([]driven.Handler, 0, len(cfgs))
	for i, cfg := range cfgs {
		h, err := r.Build(cfg, maxReadSize)
		if err != nil {
			return nil, fmt.Errorf("handler %d (%s): %w", i, cfg.DisplayName(), err)
		}
		out = append(out, h)
	}
	return out, nil
}

func resolveCommon(cfg config.HandlerConfig, maxReadSize int) (handlers.Common, error) {
	name := cfg.DisplayName()

	onMatch, err := domain.ParseOnMatch(cfg.OnMatch)
	if err != nil {
		return handlers.Common{}, withHandler(name, err)
	}
	mode, err := restrict.ParseMode(cfg.RestrictMode)
	if err != nil {
		return handlers.Common{}, withHandler(name, err)
	}
	gate, err := restrict.New(mode, cfg.RestrictTo...)
	if err != nil {
		return handlers.Common{}, withHandler(name, err)
	}

	size := cfg.MaxReadSize
	if size == 0 {
		size = maxReadSize
	}
	return handlers.Common{
		Name:        name,
		OnMatch:     onMatch,
		MaxReadSize: size,
		Restrict:    gate,
	}, nil
}

func withHandler(name string, err error) error {
	if cfgErr, ok := err.(*domain.ConfigurationError); ok && cfgErr.Handler == "" {
		cp := *cfgErr
		cp.Handler = name
		return &cp
	}
	return err
}

// Decode converts generic params into a typed params struct. Unknown keys
// are rejected and bare strings are accepted where a matcher is expected.
func Decode[T any](handler string, params map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textmatch.StringToMatcherHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(params); err != nil {
		return out, &domain.ConfigurationError{Handler: handler, Param: "params", Err: err}
	}
	return out, nil
}
