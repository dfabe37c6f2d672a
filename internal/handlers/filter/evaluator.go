// Package filter decides which documents are kept.
//
// Every filter is an Evaluator: an applicability gate, a predicate and an
// include or exclude intent. Chain combines the verdicts of several filters.
package filter

import (
	"context"
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/logger"
)

// Ensure Evaluator implements the interface.
var _ driven.Filter = (*Evaluator)(nil)

// Predicate reports whether a document matches a filter condition.
type Predicate func(ctx context.Context, doc *domain.Document) (bool, error)

// Evaluator turns a predicate into filter verdicts.
type Evaluator struct {
	common    handlers.Common
	predicate Predicate
}

// NewEvaluator creates a filter. An empty OnMatch resolves to Include.
func NewEvaluator(kind string, common handlers.Common, predicate Predicate) (*Evaluator, error) {
	if predicate == nil {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "predicate", Err: fmt.Errorf("%s filter has none", kind)}
	}
	onMatch, err := domain.ParseOnMatch(string(common.OnMatch))
	if err != nil {
		return nil, err
	}
	common.OnMatch = onMatch
	if err := common.Validate(kind); err != nil {
		return nil, err
	}
	return &Evaluator{common: common.WithDefaults(kind), predicate: predicate}, nil
}

// Name returns the filter name.
func (e *Evaluator) Name() string {
	return e.common.Name
}

// OnMatch returns the resolved intent.
func (e *Evaluator) OnMatch() domain.OnMatch {
	return e.common.OnMatch
}

// MaxReadSize returns the section bound used when reading content.
func (e *Evaluator) MaxReadSize() int {
	return e.common.MaxReadSize
}

// Evaluate derives the verdict for doc.
//
//	applicable  matched  on_match   verdict
//	no          -        -          NotApplicable
//	yes         yes      include    MatchedInclude
//	yes         yes      exclude    MatchedExclude
//	yes         no       any        NotMatched
func (e *Evaluator) Evaluate(ctx context.Context, doc *domain.Document) (domain.FilterVerdict, error) {
	if !e.common.Applicable(doc) {
		logger.Handler("filter", e.common.Name, domain.NotApplicable.String(), doc.Reference)
		return domain.NotApplicable, nil
	}

	matched, err := e.predicate(ctx, doc)
	if err != nil {
		return domain.NotMatched, domain.WrapHandlerError(e.common.Name, doc.Reference, err)
	}

	verdict := domain.NotMatched
	if matched {
		verdict = domain.MatchedInclude
		if e.common.OnMatch == domain.Exclude {
			verdict = domain.MatchedExclude
		}
	}
	logger.Handler("filter", e.common.Name, verdict.String(), doc.Reference)
	return verdict, nil
}

// AcceptDocument reports whether doc passes this filter taken alone.
// A document the filter does not apply to is accepted.
func (e *Evaluator) AcceptDocument(ctx context.Context, doc *domain.Document) (bool, error) {
	verdict, err := e.Evaluate(ctx, doc)
	if err != nil {
		return false, err
	}
	return Accepts(e.common.OnMatch, verdict), nil
}

// Accepts applies the single-filter acceptance rule.
func Accepts(onMatch domain.OnMatch, verdict domain.FilterVerdict) bool {
	switch verdict {
	case domain.NotApplicable, domain.MatchedInclude:
		return true
	case domain.MatchedExclude:
		return false
	}
	return onMatch == domain.Exclude
}
