package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// Parser converts raw content into text.
// Each parser handles specific MIME types (e.g., HTML).
type Parser interface {
	// Name returns the parser name.
	Name() string

	// SupportedMIMETypes returns the MIME types this parser handles.
	// "*" means any type.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// MIME-specific parsers should return 50-89.
	// Fallback parsers should return 1-9.
	Priority() int

	// Parse reads doc.Content and writes the extracted text to output.
	// Parsers may add metadata such as a title.
	Parse(ctx context.Context, doc *domain.Document, output io.Writer) error
}

// ParserRegistry selects the parser for a MIME type.
type ParserRegistry interface {
	// Register adds a parser.
	Register(p Parser)

	// Get returns the best parser for mimeType, or nil.
	Get(mimeType string) Parser

	// List returns all registered parsers.
	List() []Parser
}
