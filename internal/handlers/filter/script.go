package filter

import (
	"context"
	"errors"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
	"github.com/custodia-labs/importer/internal/script"
)

// ScriptParams configures a script filter.
type ScriptParams struct {
	// Engine names the script engine; empty selects the default.
	Engine string `mapstructure:"engine"`

	// Script must evaluate to a boolean.
	Script string `mapstructure:"script"`
}

// NewScript creates a filter evaluating a script once per content section
// until it returns true.
func NewScript(common handlers.Common, params ScriptParams, engines *script.Registry) (*Evaluator, error) {
	if err := common.Validate("script"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("script")
	if params.Script == "" {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "script", Err: errors.New("script is required")}
	}
	engine, err := engines.Get(params.Engine)
	if err != nil {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "engine", Err: err}
	}
	if err := engine.Compile(params.Script); err != nil {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "script", Err: err}
	}

	source := params.Script
	maxReadSize := common.MaxReadSize
	return NewEvaluator("script", common, func(ctx context.Context, doc *domain.Document) (bool, error) {
		return content.MatchSections(ctx, doc, maxReadSize, func(ctx context.Context, doc *domain.Document, text string, index int) (bool, error) {
			v, err := engine.Eval(ctx, source, script.Input{
				Reference:  doc.Reference,
				Metadata:   doc.Metadata.Map(),
				Content:    text,
				Section:    index,
				ParseState: doc.ParseState.String(),
			})
			if err != nil {
				return false, err
			}
			return script.Bool(v)
		})
	})
}
