// Package config loads and writes importer configuration.
//
// Configuration is read from a TOML or YAML file, overlaid with
// IMPORTER_ environment variables and decoded into Config. Handler
// parameters stay generic until the handler registry decodes them.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/custodia-labs/importer/internal/core/domain"
	"github.com/custodia-labs/importer/internal/handlers/restrict"
	"github.com/custodia-labs/importer/internal/textsection"
)

// EnvPrefix is the prefix of environment variables overriding file values.
// A single underscore separates keys, a double underscore is a literal
// underscore: IMPORTER_SPOOL_CODEC sets spool.codec and
// IMPORTER_MAX__READ__SIZE sets max_read_size.
const EnvPrefix = "IMPORTER_"

// DefaultSpoolThreshold is the content size kept in memory before spooling
// to a temporary file.
const DefaultSpoolThreshold = 1 << 20

// Handler kinds.
const (
	KindFilter      = "filter"
	KindTagger      = "tagger"
	KindTransformer = "transformer"
)

// Config is the importer configuration.
type Config struct {
	// Workers is the number of documents imported concurrently.
	Workers int `koanf:"workers" toml:"workers,omitempty" yaml:"workers,omitempty"`

	// RateLimit caps imports per second; zero means unlimited.
	RateLimit float64 `koanf:"rate_limit" toml:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// MaxReadSize is the default section size for handlers.
	MaxReadSize int `koanf:"max_read_size" toml:"max_read_size,omitempty" yaml:"max_read_size,omitempty"`

	Spool   SpoolConfig   `koanf:"spool" toml:"spool" yaml:"spool"`
	Storage StorageConfig `koanf:"storage" toml:"storage" yaml:"storage"`

	// PreParse handlers run on raw content, PostParse handlers on text.
	PreParse  []HandlerConfig `koanf:"pre_parse" toml:"pre_parse,omitempty" yaml:"pre_parse,omitempty"`
	PostParse []HandlerConfig `koanf:"post_parse" toml:"post_parse,omitempty" yaml:"post_parse,omitempty"`
}

// SpoolConfig controls how document content is buffered between handlers.
type SpoolConfig struct {
	// Threshold is the in-memory size limit in bytes.
	Threshold int64 `koanf:"threshold" toml:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Codec compresses spooled files: none, zstd or lz4.
	Codec string `koanf:"codec" toml:"codec,omitempty" yaml:"codec,omitempty"`

	// Dir holds spool files; empty uses the system temp dir.
	Dir string `koanf:"dir" toml:"dir,omitempty" yaml:"dir,omitempty"`
}

// StorageConfig selects where import results are kept.
type StorageConfig struct {
	// Driver is memory or sqlite.
	Driver string `koanf:"driver" toml:"driver,omitempty" yaml:"driver,omitempty"`

	// Path is the sqlite database directory.
	Path string `koanf:"path" toml:"path,omitempty" yaml:"path,omitempty"`
}

// HandlerConfig declares one handler of a stage.
type HandlerConfig struct {
	// Kind is filter, tagger or transformer.
	Kind string `koanf:"kind" toml:"kind" yaml:"kind"`

	// Type selects the implementation, e.g. text or strip_between.
	Type string `koanf:"type" toml:"type" yaml:"type"`

	// Name identifies the handler; defaults to Type.
	Name string `koanf:"name" toml:"name,omitempty" yaml:"name,omitempty"`

	OnMatch      string                 `koanf:"on_match" toml:"on_match,omitempty" yaml:"on_match,omitempty"`
	MaxReadSize  int                    `koanf:"max_read_size" toml:"max_read_size,omitempty" yaml:"max_read_size,omitempty"`
	RestrictTo   []restrict.Restriction `koanf:"restrict_to" toml:"restrict_to,omitempty" yaml:"restrict_to,omitempty"`
	RestrictMode string                 `koanf:"restrict_mode" toml:"restrict_mode,omitempty" yaml:"restrict_mode,omitempty"`

	// Params holds type-specific settings.
	Params map[string]any `koanf:"params" toml:"params,omitempty" yaml:"params,omitempty"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Workers:     runtime.GOMAXPROCS(0),
		MaxReadSize: textsection.DefaultMaxReadSize,
		Spool: SpoolConfig{
			Threshold: DefaultSpoolThreshold,
			Codec:     "none",
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
	}
}

// DisplayName returns the configured name or the type.
func (h HandlerConfig) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Type
}

// Validate checks values that do not depend on handler types.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return &domain.ConfigurationError{Param: "workers", Err: fmt.Errorf("must be at least 1, got %d", c.Workers)}
	}
	if c.RateLimit < 0 {
		return &domain.ConfigurationError{Param: "rate_limit", Err: fmt.Errorf("must not be negative, got %v", c.RateLimit)}
	}
	if c.MaxReadSize < 1 {
		return &domain.ConfigurationError{Param: "max_read_size", Err: fmt.Errorf("must be positive, got %d", c.MaxReadSize)}
	}
	switch c.Spool.Codec {
	case "", "none", "zstd", "lz4":
	default:
		return &domain.ConfigurationError{Param: "spool.codec", Err: fmt.Errorf("unknown codec %q", c.Spool.Codec)}
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return &domain.ConfigurationError{Param: "storage.driver", Err: fmt.Errorf("unknown driver %q", c.Storage.Driver)}
	}

	for stage, list := range map[string][]HandlerConfig{"pre_parse": c.PreParse, "post_parse": c.PostParse} {
		for i, h := range list {
			if err := h.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", stage, i, err)
			}
		}
	}
	return nil
}

// Validate checks the generic handler fields.
func (h HandlerConfig) Validate() error {
	switch h.Kind {
	case KindFilter, KindTagger, KindTransformer:
	default:
		return &domain.ConfigurationError{Handler: h.DisplayName(), Param: "kind", Err: fmt.Errorf("unknown kind %q", h.Kind)}
	}
	if h.Type == "" {
		return &domain.ConfigurationError{Handler: h.Name, Param: "type", Err: fmt.Errorf("is required")}
	}
	if h.MaxReadSize < 0 {
		return &domain.ConfigurationError{Handler: h.DisplayName(), Param: "max_read_size", Err: fmt.Errorf("must not be negative")}
	}
	if h.OnMatch != "" && h.Kind != KindFilter {
		return &domain.ConfigurationError{Handler: h.DisplayName(), Param: "on_match", Err: fmt.Errorf("only applies to filters")}
	}
	if _, err := domain.ParseOnMatch(h.OnMatch); err != nil {
		return err
	}
	if _, err := restrict.ParseMode(h.RestrictMode); err != nil {
		return err
	}
	return nil
}

// Format is a configuration file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("config file %s: %w", path, domain.ErrUnsupportedType)
}
