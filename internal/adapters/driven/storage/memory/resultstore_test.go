package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
)

func seedResults(t *testing.T, s *ResultStore) {
	t.Helper()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, r := range []domain.ImportResult{
		{ID: "a", Reference: "docs/a.txt", Accepted: true},
		{ID: "b", Reference: "docs/b.txt", Accepted: false, RejectedBy: "no-drafts"},
		{ID: "c", Reference: "mail/c.eml", Accepted: true},
	} {
		r.ImportedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Save(context.Background(), &r))
	}
}

func TestResultStore_SaveGet(t *testing.T) {
	s := NewResultStore()
	ctx := context.Background()

	r := &domain.ImportResult{ID: "x", Reference: "ref", Metadata: map[string][]string{"k": {"v"}}}
	require.NoError(t, s.Save(ctx, r))

	r.Metadata["k"][0] = "mutated"
	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, got.Metadata["k"])

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, &domain.ImportResult{}), domain.ErrInvalidInput)
}

func TestResultStore_List(t *testing.T) {
	s := NewResultStore()
	seedResults(t, s)
	ctx := context.Background()
	accepted := true

	tests := []struct {
		name  string
		query domain.ResultQuery
		ids   []string
	}{
		{"all newest first", domain.ResultQuery{}, []string{"c", "b", "a"}},
		{"accepted", domain.ResultQuery{Accepted: &accepted}, []string{"c", "a"}},
		{"prefix", domain.ResultQuery{ReferencePrefix: "docs/"}, []string{"b", "a"}},
		{"limit", domain.ResultQuery{Limit: 1}, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestResultStore_Delete(t *testing.T) {
	s := NewResultStore()
	seedResults(t, s)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "a"))
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "a"))
}
