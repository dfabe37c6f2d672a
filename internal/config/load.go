package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/custodia-labs/importer/internal/textmatch"
)

// Load reads configuration from path, overlaid with environment variables.
// An empty path loads defaults and environment variables only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		format, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to access config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), parser(format)); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	return finish(k)
}

// Parse reads configuration from data, overlaid with environment variables.
func Parse(data []byte, format Format) (*Config, error) {
	m, err := parser(format).Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(m, ""), nil); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return finish(k)
}

func parser(format Format) koanf.Parser {
	if format == FormatYAML {
		return yaml.Parser()
	}
	return toml.Parser()
}

func finish(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				textmatch.StringToMatcherHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envKey maps IMPORTER_SPOOL_CODEC to spool.codec and
// IMPORTER_MAX__READ__SIZE to max_read_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
	s = strings.ReplaceAll(s, "_", ".")
	return strings.ReplaceAll(s, "%UNDERSCORE%", "_")
}
