package domain

import (
	"io"
	"strings"
)

// Well-known metadata keys set by the pipeline and parsers.
const (
	// MetaReference holds the document reference.
	MetaReference = "document.reference"

	// MetaContentType holds the detected or declared MIME type.
	MetaContentType = "document.contentType"

	// MetaTitle holds a title extracted by a parser.
	MetaTitle = "document.title"
)

// ParseState tells whether content is raw bytes or extracted text.
type ParseState int

const (
	// PreParse means content is the raw bytes of the original document.
	PreParse ParseState = iota

	// PostParse means content is text extracted by a parser.
	PostParse
)

// String returns the configuration name of the parse state.
func (s ParseState) String() string {
	if s == PostParse {
		return "post"
	}
	return "pre"
}

// ParseParseState resolves "pre" or "post" (case-insensitive).
func ParseParseState(s string) (ParseState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pre", "pre_parse", "preparse":
		return PreParse, true
	case "post", "post_parse", "postparse":
		return PostParse, true
	}
	return PreParse, false
}

// Document is a document flowing through the handler chain.
// It is owned by the pipeline; handlers must not retain it after
// returning.
type Document struct {
	// Reference is the unique document reference (path, URL, ...).
	Reference string

	// Metadata is the mutable metadata of the document.
	Metadata *Properties

	// Content is a single-pass stream over the current content.
	// The pipeline hands every handler a fresh stream.
	Content io.Reader

	// ParseState tells whether Content is raw bytes or extracted text.
	ParseState ParseState
}

// NewDocument creates a document, allocating metadata when nil.
func NewDocument(reference string, content io.Reader, metadata *Properties, state ParseState) *Document {
	if metadata == nil {
		metadata = NewProperties()
	}
	return &Document{
		Reference:  reference,
		Metadata:   metadata,
		Content:    content,
		ParseState: state,
	}
}
