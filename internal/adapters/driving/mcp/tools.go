package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// ImportInput is the input schema for the import_document tool.
type ImportInput struct {
	Reference     string              `json:"reference" jsonschema:"unique document reference such as a path or URL"`
	Content       string              `json:"content" jsonschema:"raw document content"`
	ContentType   string              `json:"content_type,omitempty" jsonschema:"MIME type; detected when empty"`
	Metadata      map[string][]string `json:"metadata,omitempty" jsonschema:"initial metadata values"`
	ReturnContent bool                `json:"return_content,omitempty" jsonschema:"include the final content of accepted documents"`
}

// ResultOutput is one import result.
type ResultOutput struct {
	ID          string              `json:"id"`
	Reference   string              `json:"reference"`
	Accepted    bool                `json:"accepted"`
	RejectedBy  string              `json:"rejected_by,omitempty"`
	RejectedAt  string              `json:"rejected_at,omitempty"`
	Metadata    map[string][]string `json:"metadata,omitempty"`
	ContentSize int64               `json:"content_size"`
	ImportedAt  time.Time           `json:"imported_at"`
}

// ImportOutput is the output schema for the import_document tool.
type ImportOutput struct {
	Result  ResultOutput `json:"result"`
	Content string       `json:"content,omitempty"`
}

// ListResultsInput is the input schema for the list_results tool.
type ListResultsInput struct {
	Status string `json:"status,omitempty" jsonschema:"accepted, rejected or empty for all"`
	Prefix string `json:"prefix,omitempty" jsonschema:"only references starting with this prefix"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 20)"`
}

// ListResultsOutput is the output schema for the list_results tool.
type ListResultsOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "import_document",
		Description: "Run a document through the configured filters, taggers and transformers",
	}, s.handleImport)

	if s.ports.Results != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_results",
			Description: "List recent import results, newest first",
		}, s.handleListResults)
	}
}

// handleImport handles the import_document tool invocation.
func (s *Server) handleImport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportInput,
) (*mcp.CallToolResult, ImportOutput, error) {
	if input.Reference == "" {
		return nil, ImportOutput{}, fmt.Errorf("reference is required: %w", domain.ErrInvalidInput)
	}

	req := domain.ImportRequest{
		Reference:   input.Reference,
		ContentType: input.ContentType,
		Metadata:    input.Metadata,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(input.Content)), nil
		},
	}

	var content bytes.Buffer
	var output io.Writer
	if input.ReturnContent {
		output = &content
	}

	result, err := s.ports.Importer.ImportTo(ctx, req, output)
	if err != nil {
		return nil, ImportOutput{}, err
	}
	return nil, ImportOutput{Result: toOutput(result), Content: content.String()}, nil
}

// handleListResults handles the list_results tool invocation.
func (s *Server) handleListResults(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListResultsInput,
) (*mcp.CallToolResult, ListResultsOutput, error) {
	query := domain.ResultQuery{ReferencePrefix: input.Prefix, Limit: input.Limit}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	switch input.Status {
	case "":
	case "accepted", "rejected":
		accepted := input.Status == "accepted"
		query.Accepted = &accepted
	default:
		return nil, ListResultsOutput{}, fmt.Errorf("unknown status %q: %w", input.Status, domain.ErrInvalidInput)
	}

	results, err := s.ports.Results.List(ctx, query)
	if err != nil {
		return nil, ListResultsOutput{}, err
	}

	output := ListResultsOutput{
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = toOutput(&results[i])
	}
	return nil, output, nil
}

func toOutput(r *domain.ImportResult) ResultOutput {
	out := ResultOutput{
		ID:          r.ID,
		Reference:   r.Reference,
		Accepted:    r.Accepted,
		RejectedBy:  r.RejectedBy,
		Metadata:    r.Metadata,
		ContentSize: r.ContentSize,
		ImportedAt:  r.ImportedAt,
	}
	if !r.Accepted {
		out.RejectedAt = r.RejectedAt.String()
	}
	return out
}
