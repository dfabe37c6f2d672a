package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// mockImporter is a mock implementation of driving.Importer.
type mockImporter struct {
	result  *domain.ImportResult
	content string
	err     error

	lastRequest domain.ImportRequest
	lastBody    string
}

func (m *mockImporter) Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error) {
	return m.ImportTo(ctx, req, nil)
}

func (m *mockImporter) ImportTo(_ context.Context, req domain.ImportRequest, output io.Writer) (*domain.ImportResult, error) {
	m.lastRequest = req
	if rc, err := req.Open(); err == nil {
		b, _ := io.ReadAll(rc)
		rc.Close()
		m.lastBody = string(b)
	}
	if m.err != nil {
		return nil, m.err
	}
	if output != nil {
		io.WriteString(output, m.content) //nolint:errcheck
	}
	return m.result, nil
}

func (m *mockImporter) ImportAll(ctx context.Context, reqs []domain.ImportRequest) ([]*domain.ImportResult, error) {
	out := make([]*domain.ImportResult, len(reqs))
	for i, r := range reqs {
		res, err := m.Import(ctx, r)
		if err != nil {
			return out, err
		}
		out[i] = res
	}
	return out, nil
}

// mockResultService is a mock implementation of driving.ResultService.
type mockResultService struct {
	results   []domain.ImportResult
	err       error
	lastQuery domain.ResultQuery
}

func (m *mockResultService) Get(_ context.Context, id string) (*domain.ImportResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.results {
		if m.results[i].ID == id {
			return &m.results[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockResultService) List(_ context.Context, query domain.ResultQuery) ([]domain.ImportResult, error) {
	m.lastQuery = query
	return m.results, m.err
}
