// Package content provides the section-by-section reading shared by
// handlers that work on document text.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/textsection"
)

// SectionPredicate tests one section of a document.
type SectionPredicate func(ctx context.Context, doc *domain.Document, text string, index int) (bool, error)

// SectionFunc visits one section of a document.
type SectionFunc func(text string, index int) error

// SectionRewriter returns the replacement for one section.
type SectionRewriter func(text string, index int) (string, error)

var errMatched = errors.New("matched")

// MatchSections reports whether pred matches any section of the document
// content. It stops reading at the first match. An empty stream is tested
// once with empty text.
func MatchSections(ctx context.Context, doc *domain.Document, maxReadSize int, pred SectionPredicate) (bool, error) {
	err := EachSection(ctx, doc, maxReadSize, func(text string, index int) error {
		ok, err := pred(ctx, doc, text, index)
		if err != nil {
			return err
		}
		if ok {
			return errMatched
		}
		return nil
	})
	if errors.Is(err, errMatched) {
		return true, nil
	}
	return false, err
}

// EachSection calls fn for every section of the document content.
func EachSection(ctx context.Context, doc *domain.Document, maxReadSize int, fn SectionFunc) error {
	err := textsection.Each(reader(doc), maxReadSize, func(s textsection.Section) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(s.Text, s.Index)
	})
	return withReference(doc, err)
}

// TransformSections writes the rewritten form of every section to output.
func TransformSections(ctx context.Context, doc *domain.Document, maxReadSize int, output io.Writer, fn SectionRewriter) error {
	return EachSection(ctx, doc, maxReadSize, func(text string, index int) error {
		out, err := fn(text, index)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(output, out); err != nil {
			return fmt.Errorf("writing section %d: %w", index, err)
		}
		return nil
	})
}

func reader(doc *domain.Document) io.Reader {
	if doc.Content == nil {
		return strings.NewReader("")
	}
	return doc.Content
}

// withReference fills in the document reference of stream errors.
func withReference(doc *domain.Document, err error) error {
	var sre *domain.StreamReadError
	if errors.As(err, &sre) && sre.Reference == "" {
		sre.Reference = doc.Reference
	}
	return err
}
