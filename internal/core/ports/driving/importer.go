package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// Importer runs documents through the configured handler stages.
type Importer interface {
	// Import imports one document and records the result.
	Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error)

	// ImportTo is Import that also writes the final content of an accepted
	// document to output.
	ImportTo(ctx context.Context, req domain.ImportRequest, output io.Writer) (*domain.ImportResult, error)

	// ImportAll imports documents concurrently. Results are returned in
	// request order; failed documents are reported in the joined error.
	ImportAll(ctx context.Context, reqs []domain.ImportRequest) ([]*domain.ImportResult, error)
}

// ResultService queries recorded import results.
type ResultService interface {
	// Get returns one result. Returns domain.ErrNotFound when missing.
	Get(ctx context.Context, id string) (*domain.ImportResult, error)

	// List returns results matching the query, newest first.
	List(ctx context.Context, query domain.ResultQuery) ([]domain.ImportResult, error)
}
