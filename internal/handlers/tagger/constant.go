package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
)

// Constant is a field set to fixed values.
type Constant struct {
	Name   string   `mapstructure:"name"`
	Values []string `mapstructure:"values"`
	OnSet  string   `mapstructure:"on_set"`
}

// ConstantParams configures a constant tagger.
type ConstantParams struct {
	Constants []Constant `mapstructure:"constants"`
}

type constant struct {
	name   string
	values []string
	onSet  domain.PropertySetter
}

// NewConstant creates a tagger setting fixed metadata values.
func NewConstant(common handlers.Common, params ConstantParams) (*Evaluator, error) {
	if err := common.Validate("constant"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("constant")
	if len(params.Constants) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "constants", Err: errors.New("at least one constant is required")}
	}

	constants := make([]constant, 0, len(params.Constants))
	for i, c := range params.Constants {
		param := fmt.Sprintf("constants[%d]", i)
		if c.Name == "" {
			return nil, &domain.ConfigurationError{Handler: common.Name, Param: param + ".name", Err: errFieldRequired}
		}
		onSet, err := parseOnSet(common.Name, param+".on_set", c.OnSet)
		if err != nil {
			return nil, err
		}
		constants = append(constants, constant{
			name:   c.Name,
			values: append([]string(nil), c.Values...),
			onSet:  onSet,
		})
	}

	return NewEvaluator("constant", common, func(_ context.Context, doc *domain.Document) error {
		for _, c := range constants {
			doc.Metadata.Apply(c.onSet, c.name, c.values...)
		}
		return nil
	})
}
