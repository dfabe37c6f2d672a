package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
)

func TestServer_handleImport(t *testing.T) {
	ctx := context.Background()

	t.Run("returns result and content", func(t *testing.T) {
		importer := &mockImporter{
			result: &domain.ImportResult{
				ID:          "r1",
				Reference:   "notes.txt",
				Accepted:    true,
				Metadata:    map[string][]string{"title": {"Notes"}},
				ContentSize: 5,
			},
			content: "hello",
		}
		server, err := NewServer(&Ports{Importer: importer})
		require.NoError(t, err)

		_, output, err := server.handleImport(ctx, nil, ImportInput{
			Reference:     "notes.txt",
			Content:       "raw hello",
			ContentType:   "text/plain",
			Metadata:      map[string][]string{"author": {"me"}},
			ReturnContent: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "r1", output.Result.ID)
		assert.True(t, output.Result.Accepted)
		assert.Empty(t, output.Result.RejectedAt)
		assert.Equal(t, "hello", output.Content)
		assert.Equal(t, "raw hello", importer.lastBody)
		assert.Equal(t, "text/plain", importer.lastRequest.ContentType)
		assert.Equal(t, []string{"me"}, importer.lastRequest.Metadata["author"])
	})

	t.Run("content omitted unless requested", func(t *testing.T) {
		importer := &mockImporter{result: &domain.ImportResult{ID: "r1", Accepted: true}, content: "hello"}
		server, err := NewServer(&Ports{Importer: importer})
		require.NoError(t, err)

		_, output, err := server.handleImport(ctx, nil, ImportInput{Reference: "a"})
		require.NoError(t, err)
		assert.Empty(t, output.Content)
	})

	t.Run("rejected result reports stage", func(t *testing.T) {
		importer := &mockImporter{result: &domain.ImportResult{
			ID: "r2", RejectedBy: "no-drafts", RejectedAt: domain.PostParse,
		}}
		server, err := NewServer(&Ports{Importer: importer})
		require.NoError(t, err)

		_, output, err := server.handleImport(ctx, nil, ImportInput{Reference: "draft.txt"})
		require.NoError(t, err)
		assert.False(t, output.Result.Accepted)
		assert.Equal(t, "no-drafts", output.Result.RejectedBy)
		assert.Equal(t, "post", output.Result.RejectedAt)
	})

	t.Run("missing reference", func(t *testing.T) {
		server, err := NewServer(&Ports{Importer: &mockImporter{}})
		require.NoError(t, err)

		_, _, err = server.handleImport(ctx, nil, ImportInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("importer failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Importer: &mockImporter{err: errors.New("import failed")}})
		require.NoError(t, err)

		_, _, err = server.handleImport(ctx, nil, ImportInput{Reference: "a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import failed")
	})
}

func TestServer_handleListResults(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("maps query and results", func(t *testing.T) {
		results := &mockResultService{results: []domain.ImportResult{
			{ID: "a", Reference: "docs/a", Accepted: true, ImportedAt: now},
		}}
		server, err := NewServer(&Ports{Importer: &mockImporter{}, Results: results})
		require.NoError(t, err)

		_, output, err := server.handleListResults(ctx, nil, ListResultsInput{Status: "accepted", Prefix: "docs/"})
		require.NoError(t, err)

		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "docs/a", output.Results[0].Reference)
		assert.Equal(t, now, output.Results[0].ImportedAt)
		require.NotNil(t, results.lastQuery.Accepted)
		assert.True(t, *results.lastQuery.Accepted)
		assert.Equal(t, "docs/", results.lastQuery.ReferencePrefix)
		assert.Equal(t, 20, results.lastQuery.Limit, "default limit")
	})

	t.Run("rejected status", func(t *testing.T) {
		results := &mockResultService{}
		server, err := NewServer(&Ports{Importer: &mockImporter{}, Results: results})
		require.NoError(t, err)

		_, _, err = server.handleListResults(ctx, nil, ListResultsInput{Status: "rejected", Limit: 3})
		require.NoError(t, err)
		require.NotNil(t, results.lastQuery.Accepted)
		assert.False(t, *results.lastQuery.Accepted)
		assert.Equal(t, 3, results.lastQuery.Limit)
	})

	t.Run("unknown status", func(t *testing.T) {
		server, err := NewServer(&Ports{Importer: &mockImporter{}, Results: &mockResultService{}})
		require.NoError(t, err)

		_, _, err = server.handleListResults(ctx, nil, ListResultsInput{Status: "maybe"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
