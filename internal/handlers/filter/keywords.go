package filter

import (
	"context"
	"errors"
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
)

// KeywordsParams configures a keywords filter.
type KeywordsParams struct {
	// Keywords are literal terms; any one of them matches.
	Keywords []string `mapstructure:"keywords"`

	// IgnoreCase matches ASCII letters case-insensitively.
	IgnoreCase bool `mapstructure:"ignore_case"`
}

// NewKeywords creates a filter matching any keyword in the content.
// All keywords are searched in one pass per section.
func NewKeywords(common handlers.Common, params KeywordsParams) (*Evaluator, error) {
	if err := common.Validate("keywords"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("keywords")

	var keywords []string
	for _, k := range params.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "keywords", Err: errors.New("at least one keyword is required")}
	}

	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: params.IgnoreCase,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	automaton := builder.Build(keywords)

	// Keywords cut by a section boundary are caught by carrying the tail
	// of the previous section.
	overlap := 0
	for _, k := range keywords {
		overlap = max(overlap, len(k)-1)
	}

	maxReadSize := common.MaxReadSize
	return NewEvaluator("keywords", common, func(ctx context.Context, doc *domain.Document) (bool, error) {
		tail := ""
		return content.MatchSections(ctx, doc, maxReadSize, func(_ context.Context, _ *domain.Document, text string, _ int) (bool, error) {
			window := tail + text
			if len(automaton.FindAll(window)) > 0 {
				return true, nil
			}
			tail = window[max(0, len(window)-overlap):]
			return false, nil
		})
	})
}
