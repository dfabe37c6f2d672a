package transformer

import (
	"context"
	"errors"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
	"github.com/custodia-labs/importer/internal/script"
)

// ScriptParams configures a script transformer.
type ScriptParams struct {
	// Engine names the script engine; empty selects the default.
	Engine string `mapstructure:"engine"`

	// Script returns the new section text, or a map with "content" and
	// "metadata" entries.
	Script string `mapstructure:"script"`

	// OnSet decides how returned metadata combines with existing values.
	OnSet string `mapstructure:"on_set"`
}

// NewScript creates a transformer running a script once per section.
// Sections the script returns no content for are written unchanged.
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
	onSet, err := domain.ParsePropertySetter(params.OnSet)
	if err != nil {
		return nil, err
	}

	source := params.Script
	maxReadSize := common.MaxReadSize
	return NewEvaluator("script", common, func(ctx context.Context, doc *domain.Document, output io.Writer) error {
		return content.TransformSections(ctx, doc, maxReadSize, output, func(text string, index int) (string, error) {
			v, err := engine.Eval(ctx, source, script.Input{
				Reference:  doc.Reference,
				Metadata:   doc.Metadata.Map(),
				Content:    text,
				Section:    index,
				ParseState: doc.ParseState.String(),
			})
			if err != nil {
				return "", err
			}
			out, err := script.ParseOutput(v)
			if err != nil {
				return "", err
			}
			for _, key := range out.Keys() {
				doc.Metadata.Apply(onSet, key, out.Metadata[key]...)
			}
			if out.Content == nil {
				return text, nil
			}
			return *out.Content, nil
		})
	})
}
