// Package transformer rewrites document content.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/handlers"
	"github.com/custodia-labs/importer/internal/logger"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// Ensure Evaluator implements the interface.
var _ driven.Transformer = (*Evaluator)(nil)

// TransformFunc reads doc.Content and writes the new content to output.
type TransformFunc func(ctx context.Context, doc *domain.Document, output io.Writer) error

// Evaluator gates a TransformFunc with the handler restrictions.
type Evaluator struct {
	common    handlers.Common
	transform TransformFunc
}

// NewEvaluator creates a transformer.
func NewEvaluator(kind string, common handlers.Common, transform TransformFunc) (*Evaluator, error) {
	if err := common.Validate(kind); err != nil {
		return nil, err
	}
	common = common.WithDefaults(kind)
	if transform == nil {
		return nil, &domain.ConfigurationError{Handler: common.Name, Param: "transform", Err: fmt.Errorf("%s transformer has none", kind)}
	}
	return &Evaluator{common: common, transform: transform}, nil
}

// Name returns the transformer name.
func (e *Evaluator) Name() string {
	return e.common.Name
}

// TransformDocument writes the transformed content of doc to output.
// When the transformer does not apply, the content is copied unchanged.
func (e *Evaluator) TransformDocument(ctx context.Context, doc *domain.Document, output io.Writer) error {
	if doc.Metadata == nil {
		doc.Metadata = domain.NewProperties()
	}
	if !e.common.Applicable(doc) {
		logger.Handler("transformer", e.common.Name, "not_applicable, passing through", doc.Reference)
		return e.passThrough(doc, output)
	}
	if err := e.transform(ctx, doc, output); err != nil {
		return domain.WrapHandlerError(e.common.Name, doc.Reference, err)
	}
	return nil
}

func (e *Evaluator) passThrough(doc *domain.Document, output io.Writer) error {
	if doc.Content == nil {
		return nil
	}
	_, err := io.Copy(output, readErrors{doc.Content})
	if err == nil {
		return nil
	}
	var re readError
	if errors.As(err, &re) {
		return &domain.StreamReadError{Reference: doc.Reference, Err: re.err}
	}
	return domain.WrapHandlerError(e.common.Name, doc.Reference, err)
}

// readErrors marks errors coming from the reader so they can be told
// apart from write errors after io.Copy.
type readErrors struct {
	r io.Reader
}

func (r readErrors) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, readError{err}
	}
	return n, err
}

type readError struct {
	err error
}

func (e readError) Error() string { return e.err.Error() }
func (e readError) Unwrap() error { return e.err }

func compile(handler, param string, m textmatch.Matcher) (*textmatch.Compiled, error) {
	c, err := m.Compile()
	if err != nil {
		var ce *domain.ConfigurationError
		if errors.As(err, &ce) {
			return nil, &domain.ConfigurationError{Handler: handler, Param: param + "." + ce.Param, Err: ce.Err}
		}
		return nil, &domain.ConfigurationError{Handler: handler, Param: param, Err: err}
	}
	return c, nil
}
