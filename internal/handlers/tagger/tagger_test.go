package tagger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/restrict"
	"github.com/custodia-labs/importer/internal/textmatch"
)

func tag(t *testing.T, e *Evaluator, doc *domain.Document) {
	t.Helper()
	require.NoError(t, e.TagDocument(context.Background(), doc))
}

func TestTextBetween_FromMetadata(t *testing.T) {
	e, err := NewTextBetween(handlers.Common{}, TextBetweenParams{Extractions: []TextBetweenDetails{{
		ToField:      "target",
		FieldMatcher: textmatch.Wildcard("fld*"),
		StartMatcher: textmatch.Regex("x").WithIgnoreCase(),
		EndMatcher:   textmatch.Regex("y").WithIgnoreCase(),
	}}})
	require.NoError(t, err)

	meta := domain.NewProperties()
	meta.Add("fld1", "x1y", "x2y", "x3y")
	meta.Add("fld2", "asdfx4yqwer", "asdfx5yquer")
	meta.Add("fld3", "x6y")
	meta.Add("fld4", "7")
	meta.Set(domain.MetaContentType, "text/html")
	doc := domain.NewDocument("n/a", strings.NewReader(""), meta, domain.PreParse)

	tag(t, e, doc)

	values := doc.Metadata.Strings("target")
	sort.Strings(values)
	assert.Equal(t, "1,2,3,4,5,6", strings.Join(values, ","))
}

func TestTextBetween_FromContentRegex(t *testing.T) {
	html := `<html><body>
<img src="http://www.example.com/alice01a.gif">
<p>Some text</p>
<img src="http://www.cs.cmu.edu/%7Ergs/alice02a.gif" alt="rabbit">
</body></html>`

	e, err := NewTextBetween(handlers.Common{}, TextBetweenParams{Extractions: []TextBetweenDetails{{
		ToField:      "field",
		StartMatcher: textmatch.Regex(`http://www\..*?02a\.gif`).WithIgnoreCase(),
		EndMatcher:   textmatch.Regex(`\b`).WithIgnoreCase(),
		Inclusive:    true,
	}}})
	require.NoError(t, err)

	doc := domain.NewDocument("alice.html", strings.NewReader(html), nil, domain.PreParse)
	tag(t, e, doc)
	assert.Equal(t, []string{"http://www.cs.cmu.edu/%7Ergs/alice02a.gif"}, doc.Metadata.Strings("field"))
}

func TestTextBetween_SeveralExtractionsOneRead(t *testing.T) {
	html := strings.Repeat("<p>filler paragraph text.</p>\n", 20) +
		"<h1>Title</h1><h2>Chapter I</h2><b>bold</b><i>italic</i>"

	details := func(field, start, end string) TextBetweenDetails {
		return TextBetweenDetails{
			ToField:      field,
			StartMatcher: textmatch.Regex(start).WithIgnoreCase(),
			EndMatcher:   textmatch.Regex(end).WithIgnoreCase(),
			Inclusive:    true,
		}
	}
	e, err := NewTextBetween(handlers.Common{MaxReadSize: 64}, TextBetweenParams{Extractions: []TextBetweenDetails{
		details("headings", "<h1>", "</H1>"),
		details("headings", "<h2>", "</H2>"),
		details("strong", "<b>", "</B>"),
		details("strong", "<i>", "</I>"),
	}})
	require.NoError(t, err)

	doc := domain.NewDocument("doc.html", strings.NewReader(html), nil, domain.PreParse)
	tag(t, e, doc)

	assert.Equal(t, []string{"<h1>Title</h1>", "<h2>Chapter I</h2>"}, doc.Metadata.Strings("headings"))
	assert.Equal(t, []string{"<b>bold</b>", "<i>italic</i>"}, doc.Metadata.Strings("strong"))
}

func TestTextBetween_OnSetPrepend(t *testing.T) {
	e, err := NewTextBetween(handlers.Common{}, TextBetweenParams{Extractions: []TextBetweenDetails{{
		ToField:      "name",
		StartMatcher: textmatch.Basic("["),
		EndMatcher:   textmatch.Basic("]"),
		OnSet:        "prepend",
	}}})
	require.NoError(t, err)

	doc := domain.NewDocument("d", strings.NewReader("[new]"), nil, domain.PostParse)
	doc.Metadata.Add("name", "old")
	tag(t, e, doc)
	assert.Equal(t, []string{"new", "old"}, doc.Metadata.Strings("name"))
}

func TestTextBetween_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		params TextBetweenParams
	}{
		{"no extractions", TextBetweenParams{}},
		{"no target", TextBetweenParams{Extractions: []TextBetweenDetails{{
			StartMatcher: textmatch.Basic("a"), EndMatcher: textmatch.Basic("b"),
		}}}},
		{"no end", TextBetweenParams{Extractions: []TextBetweenDetails{{
			ToField: "f", StartMatcher: textmatch.Basic("a"),
		}}}},
		{"bad on_set", TextBetweenParams{Extractions: []TextBetweenDetails{{
			ToField: "f", StartMatcher: textmatch.Basic("a"), EndMatcher: textmatch.Basic("b"), OnSet: "merge",
		}}}},
		{"bad regex", TextBetweenParams{Extractions: []TextBetweenDetails{{
			ToField: "f", StartMatcher: textmatch.Regex("["), EndMatcher: textmatch.Basic("b"),
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextBetween(handlers.Common{}, tt.params)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestCopy_OnSetPolicies(t *testing.T) {
	tests := []struct {
		onSet string
		want  []string
	}{
		{"", []string{"existing", "a1", "a2", "b1"}},
		{"append", []string{"existing", "a1", "a2", "b1"}},
		{"prepend", []string{"a1", "a2", "b1", "existing"}},
		{"replace", []string{"a1", "a2", "b1"}},
		{"optional", []string{"existing"}},
	}

	for _, tt := range tests {
		t.Run("on_set "+tt.onSet, func(t *testing.T) {
			e, err := NewCopy(handlers.Common{}, CopyParams{Operations: []CopyDetails{{
				FieldMatcher: textmatch.Wildcard("src*"),
				ToField:      "dst",
				OnSet:        tt.onSet,
			}}})
			require.NoError(t, err)

			doc := domain.NewDocument("d", nil, nil, domain.PostParse)
			doc.Metadata.Add("srcA", "a1", "a2")
			doc.Metadata.Add("srcB", "b1")
			doc.Metadata.Add("dst", "existing")
			tag(t, e, doc)

			assert.Equal(t, tt.want, doc.Metadata.Strings("dst"))
			assert.Equal(t, []string{"a1", "a2"}, doc.Metadata.Strings("srcA"))
		})
	}
}

func TestCopy_OptionalOnMissingTarget(t *testing.T) {
	e, err := NewCopy(handlers.Common{}, CopyParams{Operations: []CopyDetails{{
		FieldMatcher: textmatch.Basic("title"),
		ToField:      "label",
		OnSet:        "optional",
	}}})
	require.NoError(t, err)

	doc := domain.NewDocument("d", nil, nil, domain.PostParse)
	doc.Metadata.Add("title", "Report")
	tag(t, e, doc)
	assert.Equal(t, []string{"Report"}, doc.Metadata.Strings("label"))
}

func TestConstant(t *testing.T) {
	e, err := NewConstant(handlers.Common{}, ConstantParams{Constants: []Constant{
		{Name: "source", Values: []string{"importer"}},
		{Name: "lang", Values: []string{"en"}, OnSet: "replace"},
	}})
	require.NoError(t, err)

	doc := domain.NewDocument("d", nil, nil, domain.PostParse)
	doc.Metadata.Add("lang", "fr")
	tag(t, e, doc)

	assert.Equal(t, []string{"importer"}, doc.Metadata.Strings("source"))
	assert.Equal(t, []string{"en"}, doc.Metadata.Strings("lang"))

	_, err = NewConstant(handlers.Common{}, ConstantParams{Constants: []Constant{{Values: []string{"x"}}}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEvaluator_NotApplicableLeavesDocument(t *testing.T) {
	r, err := restrict.New(restrict.ModeAll, restrict.Restriction{
		Field: textmatch.Basic(domain.MetaContentType),
		Value: textmatch.Basic("text/html"),
	})
	require.NoError(t, err)

	e, err := NewConstant(handlers.Common{Restrict: r}, ConstantParams{Constants: []Constant{
		{Name: "tagged", Values: []string{"yes"}},
	}})
	require.NoError(t, err)

	doc := domain.NewDocument("d", nil, nil, domain.PostParse)
	doc.Metadata.Set(domain.MetaContentType, "text/plain")
	tag(t, e, doc)
	assert.False(t, doc.Metadata.Has("tagged"))
}

func TestEvaluator_ErrorIsWrapped(t *testing.T) {
	e, err := NewEvaluator("custom", handlers.Common{Name: "failing"}, func(context.Context, *domain.Document) error {
		return errors.New("nope")
	})
	require.NoError(t, err)

	err = e.TagDocument(context.Background(), domain.NewDocument("d", nil, nil, domain.PostParse))
	assert.ErrorIs(t, err, domain.ErrHandler)
	assert.Equal(t, "failing", e.Name())
}
