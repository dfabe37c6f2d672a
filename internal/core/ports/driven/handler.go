package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// Handler is any configured step of an import stage.
// Handlers are immutable after construction and safe for concurrent use.
type Handler interface {
	// Name returns the handler name for logging and results.
	Name() string
}

// Filter decides whether a document is kept.
type Filter interface {
	Handler

	// OnMatch returns the resolved include or exclude intent.
	OnMatch() domain.OnMatch

	// Evaluate derives the filter verdict for a document.
	Evaluate(ctx context.Context, doc *domain.Document) (domain.FilterVerdict, error)

	// AcceptDocument reports whether the document passes this filter alone.
	AcceptDocument(ctx context.Context, doc *domain.Document) (bool, error)
}

// Tagger adds or changes document metadata.
type Tagger interface {
	Handler

	// TagDocument updates doc.Metadata. Content is read at most once.
	TagDocument(ctx context.Context, doc *domain.Document) error
}

// Transformer rewrites document content.
type Transformer interface {
	Handler

	// TransformDocument writes the new content to output. Metadata may
	// also be changed.
	TransformDocument(ctx context.Context, doc *domain.Document, output io.Writer) error
}
