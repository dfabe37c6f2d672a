package mcp

import (
	"github.com/custodia-labs/importer/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Importer runs documents through the handler stages.
	Importer driving.Importer

	// Results queries recorded import results. Optional.
	Results driving.ResultService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Importer == nil {
		return ErrMissingImporter
	}
	return nil
}
