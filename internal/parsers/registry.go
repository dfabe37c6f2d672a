package parsers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/parsers/eml"
	"github.com/custodia-labs/importer/internal/parsers/html"
	"github.com/custodia-labs/importer/internal/parsers/markdown"
	"github.com/custodia-labs/importer/internal/parsers/plaintext"
)

// Extensions of parsed types missing from the built-in MIME table.
func init() {
	for ext, typ := range map[string]string{
		".md":       "text/markdown",
		".markdown": "text/markdown",
		".eml":      "message/rfc822",
	} {
		if mime.TypeByExtension(ext) == "" {
			mime.AddExtensionType(ext, typ) //nolint:errcheck
		}
	}
}

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry selects parsers by MIME type and priority.
type Registry struct {
	mu      sync.RWMutex
	parsers []driven.Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a registry with the built-in parsers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(eml.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a parser.
func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
	sort.SliceStable(r.parsers, func(i, j int) bool {
		return r.parsers[i].Priority() > r.parsers[j].Priority()
	})
}

// Get returns the highest priority parser for mimeType, or nil.
// Parameters such as charset are ignored.
func (r *Registry) Get(mimeType string) driven.Parser {
	base := normalise(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.parsers {
		for _, t := range p.SupportedMIMETypes() {
			if t == "*" || t == base {
				return p
			}
		}
	}
	return nil
}

// List returns all parsers in priority order.
func (r *Registry) List() []driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]driven.Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

func normalise(mimeType string) string {
	if t, _, err := mime.ParseMediaType(mimeType); err == nil {
		return t
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
