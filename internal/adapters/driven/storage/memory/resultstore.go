package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.ImportResult
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]domain.ImportResult),
	}
}

// Save stores or replaces a result.
func (s *ResultStore) Save(_ context.Context, result *domain.ImportResult) error {
	if result == nil || result.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = copyResult(*result)
	return nil
}

// Get retrieves a result by ID.
func (s *ResultStore) Get(_ context.Context, id string) (*domain.ImportResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r = copyResult(r)
	return &r, nil
}

// List returns results matching the query, newest first.
func (s *ResultStore) List(_ context.Context, query domain.ResultQuery) ([]domain.ImportResult, error) {
	s.mu.RLock()
	var out []domain.ImportResult
	for _, r := range s.results {
		if query.Accepted != nil && r.Accepted != *query.Accepted {
			continue
		}
		if !strings.HasPrefix(r.Reference, query.ReferencePrefix) {
			continue
		}
		out = append(out, copyResult(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ImportedAt.Equal(out[j].ImportedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ImportedAt.After(out[j].ImportedAt)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

// Delete removes a result.
func (s *ResultStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
	return nil
}

func copyResult(r domain.ImportResult) domain.ImportResult {
	if r.Metadata != nil {
		meta := make(map[string][]string, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = append([]string(nil), v...)
		}
		r.Metadata = meta
	}
	return r
}
