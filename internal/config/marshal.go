package config

import (
	"bytes"
	"fmt"
	"reflect"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Marshal renders cfg in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		enc := gotoml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode toml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Equal reports whether two handler configurations declare the same handler.
// Params are compared by their canonical TOML encoding so that values
// decoded from different formats compare equal.
func (h HandlerConfig) Equal(other HandlerConfig) bool {
	if h.Kind != other.Kind || h.Type != other.Type || h.Name != other.Name ||
		h.OnMatch != other.OnMatch || h.MaxReadSize != other.MaxReadSize ||
		h.RestrictMode != other.RestrictMode {
		return false
	}
	if len(h.RestrictTo) != len(other.RestrictTo) {
		return false
	}
	for i := range h.RestrictTo {
		if h.RestrictTo[i] != other.RestrictTo[i] {
			return false
		}
	}
	if len(h.Params) == 0 && len(other.Params) == 0 {
		return true
	}

	a, errA := gotoml.Marshal(h.Params)
	b, errB := gotoml.Marshal(other.Params)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(h.Params, other.Params)
	}
	return bytes.Equal(a, b)
}

// Equal reports whether two configurations are equivalent.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Workers != other.Workers || c.RateLimit != other.RateLimit ||
		c.MaxReadSize != other.MaxReadSize || c.Spool != other.Spool ||
		c.Storage != other.Storage {
		return false
	}
	return handlersEqual(c.PreParse, other.PreParse) && handlersEqual(c.PostParse, other.PostParse)
}

func handlersEqual(a, b []HandlerConfig) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
