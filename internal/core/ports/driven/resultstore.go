package driven

import (
	"context"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// ResultStore persists import results.
type ResultStore interface {
	// Save stores or replaces a result.
	Save(ctx context.Context, result *domain.ImportResult) error

	// Get retrieves a result by ID.
	// Returns domain.ErrNotFound when missing.
	Get(ctx context.Context, id string) (*domain.ImportResult, error)

	// List returns results matching the query, newest first.
	List(ctx context.Context, query domain.ResultQuery) ([]domain.ImportResult, error)

	// Delete removes a result.
	Delete(ctx context.Context, id string) error
}
