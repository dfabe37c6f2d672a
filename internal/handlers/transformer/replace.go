package transformer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// Replacement replaces text matched by ValueMatcher with ToValue.
type Replacement struct {
	ValueMatcher textmatch.Matcher `mapstructure:"value_matcher"`
	ToValue      string            `mapstructure:"to_value"`
}

// ReplaceParams configures a replace transformer.
type ReplaceParams struct {
	Replacements []Replacement `mapstructure:"replacements"`
}

type replacement struct {
	matcher *textmatch.Compiled
	to      string
}

// NewReplace creates a transformer applying replacements to each content
// section in order. Matches must fit within one section.
func NewReplace(common handlers.Common, params ReplaceParams) (*Evaluator, error) {
	if err := common.Validate("replace"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("replace")
	if len(params.Replacements) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "replacements", Err: errors.New("at least one replacement is required")}
	}

	reps := make([]replacement, 0, len(params.Replacements))
	for i, r := range params.Replacements {
		param := fmt.Sprintf("replacements[%d].value_matcher", i)
		if r.ValueMatcher.IsZero() {
			return nil, &domain.ConfigurationError{Handler: common.Name, Param: param, Err: errors.New("pattern is required")}
		}
		m, err := compile(common.Name, param, r.ValueMatcher)
		if err != nil {
			return nil, err
		}
		reps = append(reps, replacement{matcher: m, to: r.ToValue})
	}

	maxReadSize := common.MaxReadSize
	return NewEvaluator("replace", common, func(ctx context.Context, doc *domain.Document, output io.Writer) error {
		return content.TransformSections(ctx, doc, maxReadSize, output, func(text string, _ int) (string, error) {
			for _, r := range reps {
				text = r.matcher.ReplaceAll(text, r.to)
			}
			return text, nil
		})
	})
}
