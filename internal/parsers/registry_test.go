package parsers

import (
	"context"
	"io"
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// mockParser is a configurable parser for selection tests.
type mockParser struct {
	name     string
	types    []string
	priority int
}

func (m *mockParser) Name() string                 { return m.name }
func (m *mockParser) SupportedMIMETypes() []string { return m.types }
func (m *mockParser) Priority() int                { return m.priority }
func (m *mockParser) Parse(context.Context, *domain.Document, io.Writer) error {
	return nil
}

func TestRegistry_Get(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		mimeType string
		expected string
	}{
		{"text/html", "html"},
		{"text/html; charset=utf-8", "html"},
		{"TEXT/HTML", "html"},
		{"text/markdown", "markdown"},
		{"message/rfc822", "eml"},
		{"text/plain", "plaintext"},
		{"application/octet-stream", "plaintext"},
		{"", "plaintext"},
	}
	for _, tc := range tests {
		t.Run(tc.mimeType, func(t *testing.T) {
			p := r.Get(tc.mimeType)
			require.NotNil(t, p)
			assert.Equal(t, tc.expected, p.Name())
		})
	}
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockParser{name: "low", types: []string{"text/markdown"}, priority: 10})
	r.Register(&mockParser{name: "high", types: []string{"text/markdown"}, priority: 80})

	assert.Equal(t, "high", r.Get("text/markdown").Name())
	assert.Nil(t, r.Get("text/html"))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "high", list[0].Name())
}

func TestExtensionTypes(t *testing.T) {
	assert.Contains(t, mime.TypeByExtension(".md"), "text/markdown")
	assert.Equal(t, "message/rfc822", mime.TypeByExtension(".eml"))
}
