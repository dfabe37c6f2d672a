package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// CopyDetails copies the values of matching fields into one field.
type CopyDetails struct {
	FieldMatcher textmatch.Matcher `mapstructure:"field_matcher"`
	ToField      string            `mapstructure:"to_field"`
	OnSet        string            `mapstructure:"on_set"`
}

// CopyParams configures a copy tagger.
type CopyParams struct {
	Operations []CopyDetails `mapstructure:"operations"`
}

type copyOp struct {
	from  *textmatch.Compiled
	to    string
	onSet domain.PropertySetter
}

// NewCopy creates a tagger copying metadata values between fields.
// Operations run in order; the target field is never its own source.
func NewCopy(common handlers.Common, params CopyParams) (*Evaluator, error) {
	if err := common.Validate("copy"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("copy")
	if len(params.Operations) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "operations", Err: errors.New("at least one operation is required")}
	}

	ops := make([]copyOp, 0, len(params.Operations))
	for i, d := range params.Operations {
		param := fmt.Sprintf("operations[%d]", i)
		if d.ToField == "" {
			return nil, &domain.ConfigurationError{Handler: common.Name, Param: param + ".to_field", Err: errFieldRequired}
		}
		if d.FieldMatcher.IsZero() {
			return nil, &domain.ConfigurationError{Handler: common.Name, Param: param + ".field_matcher", Err: errFieldRequired}
		}
		from, err := compile(common.Name, param+".field_matcher", d.FieldMatcher)
		if err != nil {
			return nil, err
		}
		onSet, err := parseOnSet(common.Name, param+".on_set", d.OnSet)
		if err != nil {
			return nil, err
		}
		ops = append(ops, copyOp{from: from, to: d.ToField, onSet: onSet})
	}

	return NewEvaluator("copy", common, func(_ context.Context, doc *domain.Document) error {
		for _, op := range ops {
			var values []string
			for _, key := range doc.Metadata.Keys() {
				if key != op.to && op.from.Matches(key) {
					values = append(values, doc.Metadata.Strings(key)...)
				}
			}
			if len(values) > 0 {
				doc.Metadata.Apply(op.onSet, op.to, values...)
			}
		}
		return nil
	})
}
