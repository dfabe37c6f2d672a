package filter

import (
	"context"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// ReferenceParams configures a reference filter.
type ReferenceParams struct {
	// ValueMatcher is tested against the document reference.
	ValueMatcher textmatch.Matcher `mapstructure:"value_matcher"`
}

// NewReference creates a filter matching the document reference.
func NewReference(common handlers.Common, params ReferenceParams) (*Evaluator, error) {
	if err := common.Validate("reference"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("reference")
	if params.ValueMatcher.IsZero() {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "value_matcher", Err: errPatternRequired}
	}
	value, err := compile(common.Name, "value_matcher", params.ValueMatcher)
	if err != nil {
		return nil, err
	}

	return NewEvaluator("reference", common, func(_ context.Context, doc *domain.Document) (bool, error) {
		return value.Matches(doc.Reference), nil
	})
}
