package filter

import (
	"context"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

// RejectedByIncludes names the rejection when include filters applied but
// none matched.
const RejectedByIncludes = "include-filters"

// Decision is the combined outcome of a filter chain.
type Decision struct {
	// Accepted is true when the document is kept.
	Accepted bool

	// RejectedBy names the excluding filter, or RejectedByIncludes.
	RejectedBy string
}

// Decide combines filter results:
//   - any MatchedExclude rejects;
//   - otherwise, when at least one include filter applied, a MatchedInclude
//     is required;
//   - otherwise the document is accepted.
//
// The rule does not depend on the order of results.
func Decide(results []domain.FilterResult) bool {
	return Explain(results).Accepted
}

// Explain is Decide with the name of the rejecting filter.
func Explain(results []domain.FilterResult) Decision {
	hasInclude := false
	matchedInclude := false

	for _, r := range results {
		switch r.Verdict {
		case domain.MatchedExclude:
			return Decision{RejectedBy: r.Filter}
		case domain.MatchedInclude:
			matchedInclude = true
		}
		if r.OnMatch == domain.Include && r.Verdict != domain.NotApplicable {
			hasInclude = true
		}
	}

	if hasInclude && !matchedInclude {
		return Decision{RejectedBy: RejectedByIncludes}
	}
	return Decision{Accepted: true}
}

// ContentOpener returns a fresh reader over the current document content.
type ContentOpener func() (io.Reader, error)

// Chain evaluates filters in their configured order.
type Chain struct {
	filters []driven.Filter
}

// NewChain creates a chain. Filters are evaluated in the order provided.
func NewChain(filters ...driven.Filter) *Chain {
	return &Chain{filters: filters}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f driven.Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Evaluate runs every filter on doc and stops at the first MatchedExclude.
// When open is not nil each filter reads a fresh stream from it; otherwise
// doc.Content is used as is.
func (c *Chain) Evaluate(ctx context.Context, doc *domain.Document, open ContentOpener) ([]domain.FilterResult, error) {
	results := make([]domain.FilterResult, 0, len(c.filters))

	for _, f := range c.filters {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		verdict, err := evaluateWith(ctx, f, doc, open)
		if err != nil {
			return results, err
		}

		results = append(results, domain.FilterResult{
			Filter:  f.Name(),
			OnMatch: f.OnMatch(),
			Verdict: verdict,
		})
		if verdict == domain.MatchedExclude {
			break
		}
	}
	return results, nil
}

// Accept evaluates the chain and combines the results.
func (c *Chain) Accept(ctx context.Context, doc *domain.Document, open ContentOpener) (Decision, error) {
	results, err := c.Evaluate(ctx, doc, open)
	if err != nil {
		return Decision{}, err
	}
	return Explain(results), nil
}

func evaluateWith(ctx context.Context, f driven.Filter, doc *domain.Document, open ContentOpener) (domain.FilterVerdict, error) {
	if open == nil {
		return f.Evaluate(ctx, doc)
	}

	r, err := open()
	if err != nil {
		return domain.NotMatched, &domain.StreamReadError{Reference: doc.Reference, Err: err}
	}
	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}

	view := *doc
	view.Content = r
	return f.Evaluate(ctx, &view)
}
