package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/config"
	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/handlers/restrict"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// mockHandler records the common settings it was built with.
type mockHandler struct {
	common handlers.Common
}

func (m *mockHandler) Name() string { return m.common.Name }

func newDefault(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefault()
	require.NoError(t, err)
	return r
}

func TestRegistry_RegisterAndNames(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	r.Register(config.KindTagger, "mock", func(c handlers.Common, _ map[string]any) (driven.Handler, error) {
		return &mockHandler{common: c}, nil
	})
	assert.True(t, r.Has(config.KindTagger, "mock"))
	assert.False(t, r.Has(config.KindFilter, "mock"))
	assert.Equal(t, []string{"tagger/mock"}, r.Names())
}

func TestRegistry_BuildResolvesCommon(t *testing.T) {
	r := NewRegistry()
	r.Register(config.KindFilter, "mock", func(c handlers.Common, _ map[string]any) (driven.Handler, error) {
		return &mockHandler{common: c}, nil
	})

	h, err := r.Build(config.HandlerConfig{
		Kind:         config.KindFilter,
		Type:         "mock",
		OnMatch:      "exclude",
		RestrictMode: "any",
		RestrictTo: []restrict.Restriction{
			{Field: textmatch.Basic("lang"), Value: textmatch.Basic("en")},
		},
	}, 500)
	require.NoError(t, err)

	m := h.(*mockHandler)
	assert.Equal(t, "mock", m.common.Name)
	assert.Equal(t, domain.Exclude, m.common.OnMatch)
	assert.Equal(t, 500, m.common.MaxReadSize)
	require.NotNil(t, m.common.Restrict)
	assert.Equal(t, restrict.ModeAny, m.common.Restrict.Mode())
	assert.Equal(t, 1, m.common.Restrict.Len())

	h, err = r.Build(config.HandlerConfig{Kind: config.KindFilter, Type: "mock", Name: "own", MaxReadSize: 42}, 500)
	require.NoError(t, err)
	assert.Equal(t, "own", h.Name())
	assert.Equal(t, 42, h.(*mockHandler).common.MaxReadSize)
}

func TestRegistry_BuildErrors(t *testing.T) {
	r := newDefault(t)

	tests := []struct {
		name  string
		cfg   config.HandlerConfig
		param string
	}{
		{
			name:  "unknown type",
			cfg:   config.HandlerConfig{Kind: config.KindFilter, Type: "nope"},
			param: "type",
		},
		{
			name:  "unknown param",
			cfg:   config.HandlerConfig{Kind: config.KindFilter, Type: "reference", Params: map[string]any{"value_matcher": "a", "bogus": 1}},
			param: "params",
		},
		{
			name: "restriction without field",
			cfg: config.HandlerConfig{Kind: config.KindTagger, Type: "constant", RestrictTo: []restrict.Restriction{
				{Value: textmatch.Basic("x")},
			}},
			param: "restrict_to[0].field",
		},
		{
			name:  "invalid regex",
			cfg:   config.HandlerConfig{Kind: config.KindFilter, Type: "text", Params: map[string]any{"value_matcher": map[string]any{"pattern": "(", "method": "regex"}}},
			param: "value_matcher.pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Build(tt.cfg, 100)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.param, cfgErr.Param)
		})
	}
}

func TestDefaults_BuildEveryType(t *testing.T) {
	r := newDefault(t)

	cfgs := []config.HandlerConfig{
		{Kind: config.KindFilter, Type: "text", Params: map[string]any{"value_matcher": "hello"}},
		{Kind: config.KindFilter, Type: "keywords", Params: map[string]any{"keywords": "alpha,beta"}},
		{Kind: config.KindFilter, Type: "empty", Params: map[string]any{"field_matcher": "title"}},
		{Kind: config.KindFilter, Type: "reference", Params: map[string]any{"value_matcher": map[string]any{"pattern": "*.txt", "method": "wildcard"}}},
		{Kind: config.KindFilter, Type: "script", Params: map[string]any{"script": `reference.endsWith(".txt")`}},
		{Kind: config.KindTagger, Type: "text_between", Params: map[string]any{"extractions": []any{
			map[string]any{"to_field": "t", "start_matcher": "<b>", "end_matcher": "</b>"},
		}}},
		{Kind: config.KindTagger, Type: "copy", Params: map[string]any{"operations": []any{
			map[string]any{"field_matcher": "a", "to_field": "b"},
		}}},
		{Kind: config.KindTagger, Type: "constant", Params: map[string]any{"constants": []any{
			map[string]any{"name": "source", "values": []any{"web"}},
		}}},
		{Kind: config.KindTransformer, Type: "strip_between", Params: map[string]any{"pairs": []any{
			map[string]any{"start_matcher": "<!--", "end_matcher": "-->"},
		}}},
		{Kind: config.KindTransformer, Type: "replace", Params: map[string]any{"replacements": []any{
			map[string]any{"value_matcher": "cat", "to_value": "dog"},
		}}},
		{Kind: config.KindTransformer, Type: "script", Params: map[string]any{"script": `content.upperAscii()`}},
	}

	built, err := r.BuildAll(cfgs, 0)
	require.NoError(t, err)
	require.Len(t, built, len(cfgs))

	for i, h := range built {
		assert.Equal(t, cfgs[i].Type, h.Name())
		switch cfgs[i].Kind {
		case config.KindFilter:
			assert.Implements(t, (*driven.Filter)(nil), h)
		case config.KindTagger:
			assert.Implements(t, (*driven.Tagger)(nil), h)
		case config.KindTransformer:
			assert.Implements(t, (*driven.Transformer)(nil), h)
		}
	}
}

func TestDefaults_BuiltHandlerWorks(t *testing.T) {
	r := newDefault(t)

	h, err := r.Build(config.HandlerConfig{
		Kind: config.KindTransformer,
		Type: "replace",
		Params: map[string]any{"replacements": []any{
			map[string]any{"value_matcher": map[string]any{"pattern": "cat", "ignore_case": true}, "to_value": "dog"},
		}},
	}, 0)
	require.NoError(t, err)

	doc := domain.NewDocument("a.txt", strings.NewReader("Cat and cat"), nil, domain.PostParse)
	var out strings.Builder
	require.NoError(t, h.(driven.Transformer).TransformDocument(context.Background(), doc, &out))
	assert.Equal(t, "dog and dog", out.String())
}

func TestBuildAll_ReportsPosition(t *testing.T) {
	r := newDefault(t)
	_, err := r.BuildAll([]config.HandlerConfig{
		{Kind: config.KindTagger, Type: "constant", Params: map[string]any{"constants": []any{map[string]any{"name": "a", "values": []any{"b"}}}}},
		{Kind: config.KindTagger, Type: "missing"},
	}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler 1 (missing)")
}
