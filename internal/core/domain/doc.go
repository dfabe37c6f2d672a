// Package domain defines the core entities of the document importer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A document flowing through the handler chain
//   - Properties: Ordered, multi-valued metadata
//   - OnMatch / FilterVerdict: Filter intent and per-document outcome
//   - ImportResult: The recorded outcome of importing one document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
