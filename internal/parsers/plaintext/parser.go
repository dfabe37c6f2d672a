// Package plaintext provides the fallback Parser. It copies content as is.
package plaintext

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text and any type without a dedicated parser.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "plaintext"
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{"*"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse copies content to output.
func (p *Parser) Parse(ctx context.Context, doc *domain.Document, output io.Writer) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Content == nil {
		return nil
	}

	if _, err := io.Copy(output, readErrors{doc.Content}); err != nil {
		var re readError
		if errors.As(err, &re) {
			return &domain.StreamReadError{Reference: doc.Reference, Err: re.err}
		}
		return fmt.Errorf("failed to write parsed content: %w", err)
	}
	return nil
}

// readErrors tags read failures so they can be told apart from write
// failures after io.Copy.
type readErrors struct {
	r io.Reader
}

func (r readErrors) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		return n, readError{err}
	}
	return n, err
}

type readError struct {
	err error
}

func (e readError) Error() string { return e.err.Error() }
func (e readError) Unwrap() error { return e.err }
