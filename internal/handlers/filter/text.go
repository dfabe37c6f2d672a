package filter

import (
	"context"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// TextParams configures a text filter.
type TextParams struct {
	// ValueMatcher is tested against content sections, or against the
	// values of fields matched by FieldMatcher.
	ValueMatcher textmatch.Matcher `mapstructure:"value_matcher"`

	// FieldMatcher selects metadata fields. When empty, content is tested.
	FieldMatcher textmatch.Matcher `mapstructure:"field_matcher"`
}

// NewText creates a filter matching text in content or metadata.
// Content sections are matched partially.
func NewText(common handlers.Common, params TextParams) (*Evaluator, error) {
	if err := common.Validate("text"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("text")
	if params.ValueMatcher.IsZero() {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "value_matcher", Err: errPatternRequired}
	}

	if !params.FieldMatcher.IsZero() {
		field, err := compile(common.Name, "field_matcher", params.FieldMatcher)
		if err != nil {
			return nil, err
		}
		value, err := compile(common.Name, "value_matcher", params.ValueMatcher)
		if err != nil {
			return nil, err
		}
		return NewEvaluator("text", common, func(_ context.Context, doc *domain.Document) (bool, error) {
			for _, key := range doc.Metadata.Keys() {
				if field.Matches(key) && value.MatchesAny(doc.Metadata.Strings(key)) {
					return true, nil
				}
			}
			return false, nil
		})
	}

	value, err := compile(common.Name, "value_matcher", params.ValueMatcher.WithPartial())
	if err != nil {
		return nil, err
	}
	maxReadSize := common.MaxReadSize
	return NewEvaluator("text", common, func(ctx context.Context, doc *domain.Document) (bool, error) {
		return content.MatchSections(ctx, doc, maxReadSize, func(_ context.Context, _ *domain.Document, text string, _ int) (bool, error) {
			return value.Matches(text), nil
		})
	})
}
