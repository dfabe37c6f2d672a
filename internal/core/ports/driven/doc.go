// Package driven defines the interfaces that core calls OUT to infrastructure
// and to pluggable handlers.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces; handlers, parsers and stores
// implement them.
//
// # Handler Interfaces
//
//   - Filter: accepts or rejects a document
//   - Tagger: adds metadata to a document
//   - Transformer: rewrites document content
//
// # Infrastructure Interfaces
//
//   - Parser: converts raw content into text
//   - ParserRegistry: selects the parser for a MIME type
//   - ResultStore: import result persistence
//   - ConfigStore: editable configuration file
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, handler or parser package
package driven
