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

// StripBetweenDetails is one pair of markers.
type StripBetweenDetails struct {
	StartMatcher textmatch.Matcher `mapstructure:"start_matcher"`
	EndMatcher   textmatch.Matcher `mapstructure:"end_matcher"`

	// Inclusive also strips the markers.
	Inclusive bool `mapstructure:"inclusive"`
}

// StripBetweenParams configures a strip-between transformer.
type StripBetweenParams struct {
	Pairs []StripBetweenDetails `mapstructure:"pairs"`
}

type stripPair struct {
	scanner   *content.SpanScanner
	inclusive bool
}

// NewStripBetween creates a transformer removing text between marker
// pairs. Pairs apply in order, each to the output of the previous one.
func NewStripBetween(common handlers.Common, params StripBetweenParams) (*Evaluator, error) {
	if err := common.Validate("strip_between"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("strip_between")
	if len(params.Pairs) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "pairs", Err: errors.New("at least one pair is required")}
	}

	pairs := make([]stripPair, 0, len(params.Pairs))
	for i, p := range params.Pairs {
		param := fmt.Sprintf("pairs[%d]", i)
		if p.StartMatcher.IsZero() || p.EndMatcher.IsZero() {
			return nil, &domain.ConfigurationError{Handler: common.Name, Param: param, Err: errors.New("start and end matchers are required")}
		}
		start, err := compile(common.Name, param+".start_matcher", p.StartMatcher)
		if err != nil {
			return nil, err
		}
		end, err := compile(common.Name, param+".end_matcher", p.EndMatcher)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, stripPair{
			scanner:   content.NewSpanScanner(start, end, common.MaxReadSize),
			inclusive: p.Inclusive,
		})
	}

	maxReadSize := common.MaxReadSize
	return NewEvaluator("strip_between", common, func(ctx context.Context, doc *domain.Document, output io.Writer) error {
		streams := stripStages(pairs, output)
		if err := content.EachSection(ctx, doc, maxReadSize, func(text string, _ int) error {
			return streams[0].Push(text)
		}); err != nil {
			return err
		}
		for _, st := range streams {
			if err := st.Close(); err != nil {
				return err
			}
		}
		return nil
	})
}

// stripStages links one stream per pair; each stage feeds the next and the
// last writes to output.
func stripStages(pairs []stripPair, output io.Writer) []*content.SpanStream {
	streams := make([]*content.SpanStream, len(pairs))
	next := func(text string) error {
		_, err := io.WriteString(output, text)
		return err
	}

	for i := len(pairs) - 1; i >= 0; i-- {
		forward := next
		inclusive := pairs[i].inclusive
		streams[i] = pairs[i].scanner.NewStream(forward, func(m content.SpanMatch) error {
			if inclusive {
				return nil
			}
			return forward(m.Start + m.End)
		})
		next = streams[i].Push
	}
	return streams
}
