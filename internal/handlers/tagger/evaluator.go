// Package tagger adds metadata to documents.
package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/logger"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// Ensure Evaluator implements the interface.
var _ driven.Tagger = (*Evaluator)(nil)

// TagFunc updates the metadata of an applicable document.
type TagFunc func(ctx context.Context, doc *domain.Document) error

// Evaluator gates a TagFunc with the handler restrictions.
type Evaluator struct {
	common handlers.Common
	tag    TagFunc
}

// NewEvaluator creates a tagger.
func NewEvaluator(kind string, common handlers.Common, tag TagFunc) (*Evaluator, error) {
	if err := common.Validate(kind); err != nil {
		return nil, err
	}
	common = common.WithDefaults(kind)
	if tag == nil {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "tag", Err: fmt.Errorf("%s tagger has none", kind)}
	}
	return &Evaluator{common: common, tag: tag}, nil
}

// Name returns the tagger name.
func (e *Evaluator) Name() string {
	return e.common.Name
}

// TagDocument tags doc when the tagger applies to it.
func (e *Evaluator) TagDocument(ctx context.Context, doc *domain.Document) error {
	if !e.common.Applicable(doc) {
		logger.Handler("tagger", e.common.Name, "not_applicable", doc.Reference)
		return nil
	}
	if doc.Metadata == nil {
		doc.Metadata = domain.NewProperties()
	}
	if err := e.tag(ctx, doc); err != nil {
		return domain.WrapHandlerError(e.common.Name, doc.Reference, err)
	}
	return nil
}

var errFieldRequired = errors.New("field name is required")

func compile(handler, param string, m textmatch.Matcher) (*textmatch.Compiled, error) {
	c, err := m.Compile()
	if err != nil {
		var ce *domain.ConfigurationError
		if errors.As(err, &ce) {
			return nil, &domain.ConfigurationError{Handler: handler, Param: param + "." + ce.Param, Err: ce.Err}
		}
		return nil, &domain.ConfigurationError{Handler: handler, Param: param, Err: err}
	}
	return c, nil
}

func parseOnSet(handler, param, value string) (domain.PropertySetter, error) {
	setter, err := domain.ParsePropertySetter(value)
	if err != nil {
		var ce *domain.ConfigurationError
		if errors.As(err, &ce) {
			return "", &domain.ConfigurationError{Handler: handler, Param: param, Err: ce.Err}
		}
		return "", err
	}
	return setter, nil
}
