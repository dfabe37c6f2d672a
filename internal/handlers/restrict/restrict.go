// Package restrict decides whether a handler applies to a document based
// on its metadata.
package restrict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/textmatch"
)

// Mode combines several restrictions.
type Mode string

const (
	// ModeAll requires every restriction to be satisfied.
	ModeAll Mode = "all"

	// ModeAny requires at least one restriction to be satisfied.
	ModeAny Mode = "any"
)

// ParseMode resolves a configured mode. An empty value resolves to ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeAny:
		return ModeAny, nil
	}
	return "", &domain.ConfigurationError{Param: "restrict_mode", Err: fmt.Errorf("unknown value %q", s)}
}

// Restriction pairs a metadata field matcher with a value matcher.
type Restriction struct {
	Field textmatch.Matcher `koanf:"field" toml:"field" yaml:"field" mapstructure:"field"`
	Value textmatch.Matcher `koanf:"value" toml:"value" yaml:"value" mapstructure:"value"`
}

type rule struct {
	field *textmatch.Compiled
	value *textmatch.Compiled
}

// satisfied reports whether a value of a matching field matches.
func (r rule) satisfied(meta *domain.Properties) bool {
	for _, key := range meta.Keys() {
		if r.field.Matches(key) && r.value.MatchesAny(meta.Strings(key)) {
			return true
		}
	}
	return false
}

// Matcher is the applicability gate shared by every handler.
type Matcher struct {
	mode  Mode
	rules []rule
}

// New compiles restrictions. A restriction without a field pattern is a
// configuration error.
func New(mode Mode, restrictions ...Restriction) (*Matcher, error) {
	if mode == "" {
		mode = ModeAll
	}
	if mode != ModeAll && mode != ModeAny {
		return nil, &domain.ConfigurationError{Param: "restrict_mode", Err: fmt.Errorf("unknown value %q", mode)}
	}

	m := &Matcher{mode: mode, rules: make([]rule, 0, len(restrictions))}
	for i, r := range restrictions {
		if r.Field.IsZero() {
			return nil, &domain.ConfigurationError{
				Param: fmt.Sprintf("restrict_to[%d].field", i),
				Err:   errors.New("pattern is required"),
			}
		}
		field, err := r.Field.Compile()
		if err != nil {
			return nil, fmt.Errorf("restrict_to[%d].field: %w", i, err)
		}
		value, err := r.Value.Compile()
		if err != nil {
			return nil, fmt.Errorf("restrict_to[%d].value: %w", i, err)
		}
		m.rules = append(m.rules, rule{field: field, value: value})
	}
	return m, nil
}

// Applicable reports whether the handler applies to doc.
// No restrictions means always applicable; absent fields never satisfy a
// restriction.
func (m *Matcher) Applicable(doc *domain.Document) bool {
	if m == nil || len(m.rules) == 0 {
		return true
	}
	meta := doc.Metadata
	if meta == nil {
		meta = domain.NewProperties()
	}

	for _, r := range m.rules {
		ok := r.satisfied(meta)
		if m.mode == ModeAny && ok {
			return true
		}
		if m.mode == ModeAll && !ok {
			return false
		}
	}
	return m.mode == ModeAll
}

// Mode returns the combination mode.
func (m *Matcher) Mode() Mode {
	return m.mode
}

// Len returns the number of restrictions.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
