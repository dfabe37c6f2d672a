package filter

import (
	"context"
	"strings"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// EmptyParams configures an empty-metadata filter.
type EmptyParams struct {
	// FieldMatcher selects the fields that must be absent or blank.
	FieldMatcher textmatch.Matcher `mapstructure:"field_matcher"`
}

// NewEmpty creates a filter matching documents whose selected fields are
// all missing or hold only blank values.
func NewEmpty(common handlers.Common, params EmptyParams) (*Evaluator, error) {
	if err := common.Validate("empty"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("empty")
	if params.FieldMatcher.IsZero() {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "field_matcher", Err: errPatternRequired}
	}
	field, err := compile(common.Name, "field_matcher", params.FieldMatcher)
	if err != nil {
		return nil, err
	}

	return NewEvaluator("empty", common, func(_ context.Context, doc *domain.Document) (bool, error) {
		for _, key := range doc.Metadata.Keys() {
			if !field.Matches(key) {
				continue
			}
			for _, v := range doc.Metadata.Strings(key) {
				if strings.TrimSpace(v) != "" {
					return false, nil
				}
			}
		}
		return true, nil
	})
}
