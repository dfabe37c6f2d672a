package domain

import (
	"io"
	"time"
)

// ImportResult records the outcome of importing one document.
type ImportResult struct {
	// ID is the unique identifier for the result.
	ID string

	// Reference is the imported document reference.
	Reference string

	// Accepted is true when the document passed every filter stage.
	Accepted bool

	// RejectedBy names the filter that rejected the document, or
	// "include-filters" when no include filter matched.
	RejectedBy string

	// RejectedAt is the stage where the document was rejected.
	RejectedAt ParseState

	// Metadata is a snapshot of the final metadata.
	Metadata map[string][]string

	// ContentSize is the size in bytes of the final content.
	ContentSize int64

	// ImportedAt is when the import finished.
	ImportedAt time.Time

	// Duration is how long the import took.
	Duration time.Duration
}

// ImportRequest describes a document handed to the importer.
type ImportRequest struct {
	// Reference is the document reference.
	Reference string

	// ContentType is the declared MIME type; detected when empty.
	ContentType string

	// Metadata holds initial metadata values.
	Metadata map[string][]string

	// Open returns a fresh stream over the raw content.
	Open func() (io.ReadCloser, error)
}

// ResultQuery selects stored import results.
type ResultQuery struct {
	// Accepted filters by outcome when non-nil.
	Accepted *bool

	// ReferencePrefix keeps results whose reference starts with it.
	ReferencePrefix string

	// Limit caps the number of results; zero means no limit.
	Limit int
}
