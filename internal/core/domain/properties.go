package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Properties is an ordered, multi-valued metadata mapping.
// Keys are unique and keep their insertion order; each key owns an
// ordered list of values. The zero value is ready to use.
//
// Read methods accept a nil receiver. Properties is not safe for
// concurrent mutation. A document and its
// metadata are owned by a single worker at a time.
type Properties struct {
	keys   []string
	values map[string][]string
}

// NewProperties creates an empty Properties.
func NewProperties() *Properties {
	return &Properties{values: make(map[string][]string)}
}

// PropertiesFromMap builds Properties from a plain map.
// Keys are inserted in sorted order so the result is deterministic.
func PropertiesFromMap(m map[string][]string) *Properties {
	p := NewProperties()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Set(k, m[k]...)
	}
	return p
}

func (p *Properties) ensure(key string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
		p.values[key] = nil
	}
}

// Add appends values to a key, creating the key if needed.
func (p *Properties) Add(key string, values ...string) {
	p.ensure(key)
	p.values[key] = append(p.values[key], values...)
}

// Set replaces all values of a key. Setting no values keeps the key
// with an empty value list.
func (p *Properties) Set(key string, values ...string) {
	p.ensure(key)
	p.values[key] = append([]string(nil), values...)
}

// Apply stores values under key according to the given setter policy.
func (p *Properties) Apply(setter PropertySetter, key string, values ...string) {
	switch setter {
	case SetPrepend:
		existing := p.values[key]
		merged := make([]string, 0, len(values)+len(existing))
		merged = append(merged, values...)
		merged = append(merged, existing...)
		p.Set(key, merged...)
	case SetReplace:
		p.Set(key, values...)
	case SetOptional:
		if len(p.values[key]) == 0 {
			p.Set(key, values...)
		}
	default:
		p.Add(key, values...)
	}
}

// Strings returns a copy of the values held by key.
func (p *Properties) Strings(key string) []string {
	if p == nil {
		return nil
	}
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	return append([]string(nil), v...)
}

// String returns the first value of key, or "" when absent.
func (p *Properties) String(key string) string {
	if p == nil {
		return ""
	}
	if v := p.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether key is present, even with no values.
func (p *Properties) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Remove deletes key and returns the values it held.
func (p *Properties) Remove(key string) []string {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return v
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of keys.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns a deep copy.
func (p *Properties) Clone() *Properties {
	c := NewProperties()
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.Set(k, p.values[k]...)
	}
	return c
}

// Map returns a plain map copy of the properties.
func (p *Properties) Map() map[string][]string {
	if p == nil {
		return map[string][]string{}
	}
	m := make(map[string][]string, len(p.keys))
	for _, k := range p.keys {
		m[k] = append([]string(nil), p.values[k]...)
	}
	return m
}

// PropertySetter decides how new values combine with existing ones.
type PropertySetter string

const (
	// SetAppend adds new values after existing ones.
	SetAppend PropertySetter = "append"

	// SetPrepend adds new values before existing ones.
	SetPrepend PropertySetter = "prepend"

	// SetReplace discards existing values.
	SetReplace PropertySetter = "replace"

	// SetOptional only sets values when the key has none.
	SetOptional PropertySetter = "optional"
)

// ParsePropertySetter resolves a configured setter name.
// An empty name resolves to SetAppend.
func ParsePropertySetter(s string) (PropertySetter, error) {
	switch PropertySetter(strings.ToLower(strings.TrimSpace(s))) {
	case "", SetAppend:
		return SetAppend, nil
	case SetPrepend:
		return SetPrepend, nil
	case SetReplace:
		return SetReplace, nil
	case SetOptional:
		return SetOptional, nil
	}
	return "", &ConfigurationError{Param: "on_set", Err: fmt.Errorf("unknown value %q", s)}
}
