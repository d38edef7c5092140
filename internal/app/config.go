package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vk/conceptc/internal/output"
	"github.com/vk/conceptc/internal/parser"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Sources   []string `toml:"sources"`   // .rhe files or directories
	Manifests []string `toml:"manifests"` // .hcl files or directories

	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`

	MaxIterations     int      `toml:"max_iterations"`
	MaxErrorLines     int      `toml:"max_error_lines"`
	Variant           string   `toml:"variant"`
	VariantExtensions []string `toml:"variant_extensions"`
	ExcessDotInKey    string   `toml:"excess_dot_in_key"`

	CachePath    string `toml:"cache_path"`
	OutputFormat string `toml:"output_format"`
	OutputPath   string `toml:"output_path"`

	Publish PublishConfig `toml:"publish"`
}

// PublishConfig configures the hand-off to a generator service.
type PublishConfig struct {
	URL                string `toml:"url"`
	Namespace          string `toml:"namespace"`
	Event              string `toml:"event"`
	AckEvent           string `toml:"ack_event"`
	Timeout            string `toml:"timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// LoadConfigFile reads a TOML configuration file. Unknown keys are an
// error.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if len(cfg.Sources) == 0 {
		errs = append(errs, errors.New("at least one source path is required"))
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat))
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}

	if cfg.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max iterations must not be negative, got %d", cfg.MaxIterations))
	}
	if cfg.MaxErrorLines < 0 {
		errs = append(errs, fmt.Errorf("max error lines must not be negative, got %d", cfg.MaxErrorLines))
	}
	if _, err := parser.ParseExcessDotPolicy(cfg.ExcessDotInKey); err != nil {
		errs = append(errs, err)
	}

	format, err := output.ParseFormat(cfg.OutputFormat)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.OutputFormat = string(format)

	if cfg.Publish.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Publish.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid publish timeout '%s': %w", cfg.Publish.Timeout, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) excessDotPolicy() parser.ExcessDotPolicy {
	p, _ := parser.ParseExcessDotPolicy(c.ExcessDotInKey)
	return p
}

func (c *Config) publishTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Publish.Timeout)
	return d
}
