// Package parsers turns raw document content into text between the
// pre-parse and post-parse handler stages.
//
// Each parser handles a set of MIME types. The Registry picks the parser
// with the highest priority for a document's content type; parsers that
// declare "*" serve as fallbacks.
package parsers
