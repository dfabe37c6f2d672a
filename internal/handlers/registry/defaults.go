package registry

import (
	"github.com/custodia-labs/importer/internal/config"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/filter"
	"github.com/custodia-labs/importer/internal/handlers/tagger"
	"github.com/custodia-labs/importer/internal/handlers/transformer"
	"github.com/custodia-labs/importer/internal/script"
)

// RegisterDefaults registers all built-in handlers. engines backs the
// script handlers.
func RegisterDefaults(r *Registry, engines *script.Registry) {
	r.Register(config.KindFilter, "text", typed(filter.NewText))
	r.Register(config.KindFilter, "keywords", typed(filter.NewKeywords))
	r.Register(config.KindFilter, "empty", typed(filter.NewEmpty))
	r.Register(config.KindFilter, "reference", typed(filter.NewReference))
	r.Register(config.KindFilter, "script", typed(withEngines(filter.NewScript, engines)))

	r.Register(config.KindTagger, "text_between", typed(tagger.NewTextBetween))
	r.Register(config.KindTagger, "copy", typed(tagger.NewCopy))
	r.Register(config.KindTagger, "constant", typed(tagger.NewConstant))

	r.Register(config.KindTransformer, "strip_between", typed(transformer.NewStripBetween))
	r.Register(config.KindTransformer, "replace", typed(transformer.NewReplace))
	r.Register(config.KindTransformer, "script", typed(withEngines(transformer.NewScript, engines)))
}

// NewDefault returns a registry with built-in handlers and the default
// script engines.
func NewDefault() (*Registry, error) {
	engines, err := script.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	RegisterDefaults(r, engines)
	return r, nil
}

func typed[P any, H driven.Handler](build func(handlers.Common, P) (H, error)) BuilderFunc {
	return func(common handlers.Common, params map[string]any) (driven.Handler, error) {
		p, err := Decode[P](common.Name, params)
		if err != nil {
			return nil, err
		}
		h, err := build(common, p)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

func withEngines[P, H any](build func(handlers.Common, P, *script.Registry) (H, error), engines *script.Registry) func(handlers.Common, P) (H, error) {
	return func(common handlers.Common, p P) (H, error) {
		return build(common, p, engines)
	}
}
