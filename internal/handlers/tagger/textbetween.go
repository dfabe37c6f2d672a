package tagger

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/content"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// TextBetweenDetails describes one extraction.
type TextBetweenDetails struct {
	// ToField receives the extracted values.
	ToField string `mapstructure:"to_field"`

	// FieldMatcher selects metadata fields to extract from. When empty,
	// text is extracted from the content.
	FieldMatcher textmatch.Matcher `mapstructure:"field_matcher"`

	// StartMatcher and EndMatcher delimit the text to extract.
	StartMatcher textmatch.Matcher `mapstructure:"start_matcher"`
	EndMatcher   textmatch.Matcher `mapstructure:"end_matcher"`

	// Inclusive keeps the start and end markers in the value.
	Inclusive bool `mapstructure:"inclusive"`

	// OnSet decides how values combine with existing ones.
	OnSet string `mapstructure:"on_set"`
}

// TextBetweenParams configures a text-between tagger.
type TextBetweenParams struct {
	Extractions []TextBetweenDetails `mapstructure:"extractions"`
}

type extraction struct {
	toField   string
	field     *textmatch.Compiled
	scanner   *content.SpanScanner
	inclusive bool
	onSet     domain.PropertySetter
}

// NewTextBetween creates a tagger storing text found between start and
// end markers. Content extractions share a single read of the content.
func NewTextBetween(common handlers.Common, params TextBetweenParams) (*Evaluator, error) {
	if err := common.Validate("text_between"); err != nil {
		return nil, err
	}
	common = common.WithDefaults("text_between")
	if len(params.Extractions) == 0 {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "extractions", Err: errors.New("at least one extraction is required")}
	}

	var fromMeta, fromContent []extraction
	for i, d := range params.Extractions {
		param := fmt.Sprintf("extractions[%d]", i)
		x, err := newExtraction(common, param, d)
		if err != nil {
			return nil, err
		}
		if x.field != nil {
			fromMeta = append(fromMeta, x)
		} else {
			fromContent = append(fromContent, x)
		}
	}

	maxReadSize := common.MaxReadSize
	return NewEvaluator("text_between", common, func(ctx context.Context, doc *domain.Document) error {
		for _, x := range fromMeta {
			x.tagFromMetadata(doc.Metadata)
		}
		if len(fromContent) == 0 {
			return nil
		}
		return tagFromContent(ctx, doc, maxReadSize, fromContent)
	})
}

func newExtraction(common handlers.Common, param string, d TextBetweenDetails) (extraction, error) {
	if d.ToField == "" {
		return extraction{}, &domain.ConfigurationError{Handler: common.Name, Param: param + ".to_field", Err: errFieldRequired}
	}
	if d.StartMatcher.IsZero() || d.EndMatcher.IsZero() {
		return extraction{}, &domain.ConfigurationError{
			Handler: common.Name,
			Param:   param,
			Err:     errors.New("start and end matchers are required"),
		}
	}
	start, err := compile(common.Name, param+".start_matcher", d.StartMatcher)
	if err != nil {
		return extraction{}, err
	}
	end, err := compile(common.Name, param+".end_matcher", d.EndMatcher)
	if err != nil {
		return extraction{}, err
	}
	onSet, err := parseOnSet(common.Name, param+".on_set", d.OnSet)
	if err != nil {
		return extraction{}, err
	}

	x := extraction{
		toField:   d.ToField,
		scanner:   content.NewSpanScanner(start, end, common.MaxReadSize),
		inclusive: d.Inclusive,
		onSet:     onSet,
	}
	if !d.FieldMatcher.IsZero() {
		if x.field, err = compile(common.Name, param+".field_matcher", d.FieldMatcher); err != nil {
			return extraction{}, err
		}
	}
	return x, nil
}

func (x extraction) tagFromMetadata(meta *domain.Properties) {
	var values []string
	for _, key := range meta.Keys() {
		if !x.field.Matches(key) {
			continue
		}
		for _, v := range meta.Strings(key) {
			for _, m := range x.scanner.FindAll(v) {
				values = append(values, m.Text(x.inclusive))
			}
		}
	}
	if len(values) > 0 {
		meta.Apply(x.onSet, x.toField, values...)
	}
}

func tagFromContent(ctx context.Context, doc *domain.Document, maxReadSize int, extractions []extraction) error {
	found := make([][]string, len(extractions))
	streams := make([]*content.SpanStream, len(extractions))
	for i, x := range extractions {
		streams[i] = x.scanner.NewStream(nil, func(m content.SpanMatch) error {
			found[i] = append(found[i], m.Text(x.inclusive))
			return nil
		})
	}

	err := content.EachSection(ctx, doc, maxReadSize, func(text string, _ int) error {
		for _, st := range streams {
			if err := st.Push(text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, st := range streams {
		if err := st.Close(); err != nil {
			return err
		}
		if len(found[i]) > 0 {
			doc.Metadata.Apply(extractions[i].onSet, extractions[i].toField, found[i]...)
		}
	}
	return nil
}
