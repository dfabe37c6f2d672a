// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the importer. It lets AI assistants import documents and inspect import
// results.
package mcp

import "errors"

// ErrMissingImporter is returned when the importer is not provided.
var ErrMissingImporter = errors.New("mcp: importer is required")
