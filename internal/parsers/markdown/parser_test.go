package markdown

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

func TestParser_Descriptors(t *testing.T) {
	p := New()
	assert.Equal(t, "markdown", p.Name())
	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, p.SupportedMIMETypes())
	assert.Equal(t, 50, p.Priority())
	assert.Implements(t, (*driven.Parser)(nil), p)
}

func TestParse_TitleAndText(t *testing.T) {
	input := "# Getting Started\n\nRead the [guide](https://example.com) and run `make`.\n\n- one\n- **two**\n"
	doc := domain.NewDocument("README.md", strings.NewReader(input), nil, domain.PreParse)

	var out strings.Builder
	require.NoError(t, New().Parse(context.Background(), doc, &out))

	assert.Equal(t, "Getting Started\n\nRead the guide and run make.\n\none\ntwo", out.String())
	assert.Equal(t, "Getting Started", doc.Metadata.String(domain.MetaTitle))
}

func TestParse_KeepsExistingTitle(t *testing.T) {
	meta := domain.PropertiesFromMap(map[string][]string{domain.MetaTitle: {"Given"}})
	doc := domain.NewDocument("a.md", strings.NewReader("# Other"), meta, domain.PreParse)

	require.NoError(t, New().Parse(context.Background(), doc, &strings.Builder{}))
	assert.Equal(t, []string{"Given"}, doc.Metadata.Strings(domain.MetaTitle))
}

func TestParse_NilDocument(t *testing.T) {
	err := New().Parse(context.Background(), nil, &strings.Builder{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"h1", "# Title\ntext", "Title"},
		{"h2 only", "## Sub\ntext", ""},
		{"inside code block", "```\n# not a title\n```\n# Real", "Real"},
		{"none", "plain", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTitle(tt.input))
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"code block removed", "before\n```go\nx := 1\n```\nafter", "before\n\nafter"},
		{"image alt kept", "![diagram](d.png)", "diagram"},
		{"emphasis", "*a* and __b__", "a and b"},
		{"snake case kept", "use my_var here", "use my_var here"},
		{"blockquote", "> quoted", "quoted"},
		{"numbered list", "1. first\n2. second", "first\nsecond"},
		{"horizontal rule", "a\n\n---\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkdown(tt.input))
		})
	}
}
