// Package handlers holds the settings shared by every filter, tagger and
// transformer. Concrete handlers live in the filter, tagger and transformer
// sub-packages and are built from configuration by the registry package.
package handlers

import (
	"fmt"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers/restrict"
	"github.com/custodia-labs/importer/internal/textsection"
)

// Common holds settings resolved once when a handler is built.
type Common struct {
	// Name identifies the handler in logs and results.
	Name string

	// OnMatch is the include or exclude intent of filters.
	OnMatch domain.OnMatch

	// MaxReadSize bounds the characters read at once from content.
	MaxReadSize int

	// Restrict gates the handler on document metadata; nil means always.
	Restrict *restrict.Matcher
}

// Validate rejects settings no handler can run with.
func (c Common) Validate(kind string) error {
	if c.MaxReadSize < 0 {
		name := c.Name
		if name == "" {
			name = kind
		}
		return &domain.ConfigurationError{Handler: name, Param: "max_read_size", Err: fmt.Errorf("must not be negative, got %d", c.MaxReadSize)}
	}
	return nil
}

// WithDefaults returns a copy with defaults applied to unset fields.
func (c Common) WithDefaults(kind string) Common {
	if c.Name == "" {
		c.Name = kind
	}
	if c.OnMatch == "" {
		c.OnMatch = domain.Include
	}
	if c.MaxReadSize == 0 {
		c.MaxReadSize = textsection.DefaultMaxReadSize
	}
	return c
}

// Applicable reports whether the handler applies to doc.
func (c Common) Applicable(doc *domain.Document) bool {
	return c.Restrict.Applicable(doc)
}
