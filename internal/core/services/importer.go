package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/core/ports/driving"
	"github.com/custodia-labs/importer/internal/handlers/filter"
	"github.com/custodia-labs/importer/internal/logger"
	"github.com/custodia-labs/importer/internal/spool"
)

// Ensure ImportService implements the interfaces.
var (
	_ driving.Importer      = (*ImportService)(nil)
	_ driving.ResultService = (*ImportService)(nil)
)

// ErrNoResultStore is returned by result queries when no store is set.
var ErrNoResultStore = errors.New("no result store configured")

// ImportOption configures an ImportService.
type ImportOption func(*ImportService)

// WithWorkers sets how many documents ImportAll processes at once.
func WithWorkers(n int) ImportOption {
	return func(s *ImportService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit caps ImportAll at perSecond documents; zero disables it.
func WithRateLimit(perSecond float64) ImportOption {
	return func(s *ImportService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithSpools sets the factory for content buffers.
func WithSpools(f *spool.Factory) ImportOption {
	return func(s *ImportService) {
		s.spools = f
	}
}

// WithResultStore records every result in store.
func WithResultStore(store driven.ResultStore) ImportOption {
	return func(s *ImportService) {
		s.results = store
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ImportOption {
	return func(s *ImportService) {
		s.now = now
	}
}

// ImportService runs documents through the pre-parse stage, the content
// parser and the post-parse stage.
type ImportService struct {
	preParse  []driven.Handler
	postParse []driven.Handler
	parsers   driven.ParserRegistry
	results   driven.ResultStore
	spools    *spool.Factory
	workers   int
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewImportService creates an import service. Handlers run in the order
// given; parsers may be nil to leave content unparsed.
func NewImportService(preParse, postParse []driven.Handler, parsers driven.ParserRegistry, opts ...ImportOption) *ImportService {
	s := &ImportService{
		preParse:  preParse,
		postParse: postParse,
		parsers:   parsers,
		workers:   1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import imports one document and records the result.
func (s *ImportService) Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error) {
	return s.ImportTo(ctx, req, nil)
}

// ImportTo imports one document. When output is not nil and the document
// is accepted, its final content is written to output.
func (s *ImportService) ImportTo(ctx context.Context, req domain.ImportRequest, output io.Writer) (*domain.ImportResult, error) {
	if req.Reference == "" || req.Open == nil {
		return nil, fmt.Errorf("import request: %w", domain.ErrInvalidInput)
	}
	start := s.now()

	content, err := s.load(req)
	if err != nil {
		return nil, err
	}
	defer func() { content.Release() }()

	doc := domain.NewDocument(req.Reference, nil, domain.PropertiesFromMap(req.Metadata), domain.PreParse)
	doc.Metadata.Apply(domain.SetOptional, domain.MetaReference, req.Reference)
	if ct := s.contentType(req, content); ct != "" {
		doc.Metadata.Apply(domain.SetOptional, domain.MetaContentType, ct)
	}

	result := &domain.ImportResult{
		ID:        uuid.NewString(),
		Reference: req.Reference,
	}

	logger.Import(req.Reference, "pre-parse stage (%d handlers)", len(s.preParse))
	decision, err := s.runStage(ctx, doc, &content, s.preParse)
	if err != nil {
		return nil, err
	}

	if decision.Accepted {
		if err := s.parse(ctx, doc, &content); err != nil {
			return nil, err
		}
		logger.Import(req.Reference, "post-parse stage (%d handlers)", len(s.postParse))
		decision, err = s.runStage(ctx, doc, &content, s.postParse)
		if err != nil {
			return nil, err
		}
	}

	result.Accepted = decision.Accepted
	result.RejectedBy = decision.RejectedBy
	if !decision.Accepted {
		result.RejectedAt = doc.ParseState
	}
	result.Metadata = doc.Metadata.Map()
	result.ContentSize = content.Size()
	result.ImportedAt = s.now()
	result.Duration = result.ImportedAt.Sub(start)

	if result.Accepted {
		logger.Info("Imported %s (%d bytes)", req.Reference, result.ContentSize)
		if output != nil {
			if err := copyOut(content, output); err != nil {
				return nil, err
			}
		}
	} else {
		logger.Info("Rejected %s at %s stage by %s", req.Reference, result.RejectedAt, result.RejectedBy)
	}

	if s.results != nil {
		if err := s.results.Save(ctx, result); err != nil {
			return result, fmt.Errorf("save result: %w", err)
		}
	}
	return result, nil
}

// ImportAll imports documents concurrently, honouring the worker count and
// rate limit. Results keep request order; a failed document leaves a nil
// entry and its error is joined into the returned error.
func (s *ImportService) ImportAll(ctx context.Context, reqs []domain.ImportRequest) ([]*domain.ImportResult, error) {
	results := make([]*domain.ImportResult, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, req := range reqs {
		if s.limiter != nil {
			if err := s.limiter.Wait(gctx); err != nil {
				errs[i] = err
				break
			}
		}
		g.Go(func() error {
			r, err := s.Import(gctx, req)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", req.Reference, err)
				// Cancellation stops the batch; document errors do not.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, errors.Join(errs...)
}

// Get returns one recorded result.
func (s *ImportService) Get(ctx context.Context, id string) (*domain.ImportResult, error) {
	if s.results == nil {
		return nil, ErrNoResultStore
	}
	return s.results.Get(ctx, id)
}

// List returns recorded results, newest first.
func (s *ImportService) List(ctx context.Context, query domain.ResultQuery) ([]domain.ImportResult, error) {
	if s.results == nil {
		return nil, ErrNoResultStore
	}
	return s.results.List(ctx, query)
}

func (s *ImportService) load(req domain.ImportRequest) (*spool.Spool, error) {
	rc, err := req.Open()
	if err != nil {
		return nil, &domain.StreamReadError{Reference: req.Reference, Err: err}
	}
	defer rc.Close()

	content := s.spools.New()
	if _, err := content.ReadFrom(rc); err != nil {
		content.Release()
		return nil, &domain.StreamReadError{Reference: req.Reference, Err: err}
	}
	return content, nil
}

// contentType uses the declared type, then the file extension, then
// content sniffing.
func (s *ImportService) contentType(req domain.ImportRequest, content *spool.Spool) string {
	if req.ContentType != "" {
		return req.ContentType
	}
	if t := mime.TypeByExtension(filepath.Ext(req.Reference)); t != "" {
		return t
	}
	if content.Size() == 0 {
		return ""
	}

	r, err := content.Open()
	if err != nil {
		return ""
	}
	defer r.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(r, head)
	return http.DetectContentType(head[:n])
}

// runStage runs handlers in order. Consecutive filters are evaluated as one
// chain; a MatchedExclude rejects at once, the include rule is applied once
// every handler of the stage has run.
func (s *ImportService) runStage(ctx context.Context, doc *domain.Document, content **spool.Spool, stage []driven.Handler) (filter.Decision, error) {
	var results []domain.FilterResult
	open := func() (io.Reader, error) { return (*content).Open() }

	for i := 0; i < len(stage); {
		if err := ctx.Err(); err != nil {
			return filter.Decision{}, err
		}

		if _, ok := stage[i].(driven.Filter); ok {
			chain := filter.NewChain()
			for ; i < len(stage); i++ {
				f, ok := stage[i].(driven.Filter)
				if !ok {
					break
				}
				chain.Add(f)
			}
			chainResults, err := chain.Evaluate(ctx, doc, open)
			results = append(results, chainResults...)
			if err != nil {
				return filter.Decision{}, err
			}
			if n := len(chainResults); n > 0 && chainResults[n-1].Verdict == domain.MatchedExclude {
				return filter.Explain(results), nil
			}
			continue
		}

		if err := s.runHandler(ctx, doc, content, stage[i]); err != nil {
			return filter.Decision{}, err
		}
		i++
	}
	return filter.Explain(results), nil
}

func (s *ImportService) runHandler(ctx context.Context, doc *domain.Document, content **spool.Spool, h driven.Handler) error {
	r, err := (*content).Open()
	if err != nil {
		return &domain.StreamReadError{Reference: doc.Reference, Err: err}
	}
	defer r.Close()
	doc.Content = r
	defer func() { doc.Content = nil }()

	switch h := h.(type) {
	case driven.Tagger:
		logger.Import(doc.Reference, "tagger %s", h.Name())
		return h.TagDocument(ctx, doc)
	case driven.Transformer:
		logger.Import(doc.Reference, "transformer %s", h.Name())
		out := s.spools.New()
		if err := h.TransformDocument(ctx, doc, out); err != nil {
			out.Release()
			return err
		}
		if err := out.Finish(); err != nil {
			out.Release()
			return domain.WrapHandlerError(h.Name(), doc.Reference, err)
		}
		(*content).Release()
		*content = out
		return nil
	}
	return fmt.Errorf("handler %s: %w", h.Name(), domain.ErrUnsupportedType)
}

// parse converts raw content into text with the parser selected by content
// type. Without a parser the content is kept as is.
func (s *ImportService) parse(ctx context.Context, doc *domain.Document, content **spool.Spool) error {
	defer func() { doc.ParseState = domain.PostParse }()
	if s.parsers == nil {
		return nil
	}
	p := s.parsers.Get(doc.Metadata.String(domain.MetaContentType))
	if p == nil {
		return nil
	}
	logger.Import(doc.Reference, "parser %s", p.Name())

	r, err := (*content).Open()
	if err != nil {
		return &domain.StreamReadError{Reference: doc.Reference, Err: err}
	}
	defer r.Close()
	doc.Content = r
	defer func() { doc.Content = nil }()

	out := s.spools.New()
	if err := p.Parse(ctx, doc, out); err != nil {
		out.Release()
		return domain.WrapHandlerError(p.Name(), doc.Reference, err)
	}
	if err := out.Finish(); err != nil {
		out.Release()
		return err
	}
	(*content).Release()
	*content = out
	return nil
}

func copyOut(content *spool.Spool, output io.Writer) error {
	r, err := content.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}
