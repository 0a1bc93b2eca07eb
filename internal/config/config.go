package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/listview/internal/config/loader"
)

// Config is the complete listview configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Columns  ColumnsConfig  `toml:"columns"`
	Ordinals OrdinalsConfig `toml:"ordinals"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Views    []ViewConfig   `toml:"views" validate:"unique=Name,dive"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// ColumnsConfig configures derived column text.
type ColumnsConfig struct {
	// AddressWidth is the number of hex digits; 0 derives it from the
	// document's address size.
	AddressWidth int `toml:"address_width" validate:"gte=0,lte=16"`

	// UnknownSegment is shown for addresses outside every segment.
	UnknownSegment string `toml:"unknown_segment" validate:"required"`
}

// OrdinalsConfig locates override ordinal tables.
type OrdinalsConfig struct {
	Dir string `toml:"dir" validate:"omitempty,dir"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr" validate:"omitempty,hostname_port"`
}

// ViewConfig declares a view. At least one of Types or Script is required;
// when both are set an item must satisfy both.
type ViewConfig struct {
	Name    string   `toml:"name" validate:"required"`
	Types   []string `toml:"types,omitempty" validate:"required_without=Script,dive,required"`
	Script  string   `toml:"script,omitempty"`
	Columns []string `toml:"columns,omitempty" validate:"dive,required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Columns: ColumnsConfig{UnknownSegment: "???"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks c, returning an error wrapping ErrValidationFailed.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(msgs, "; "))
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	fs  loader.FileSystem
	env loader.Loader
}

// WithFS reads the config file from fsys.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnv replaces the process environment layer, e.g. with
// loader.NewEnvLoaderFrom in tests.
func WithEnv(env loader.Loader) LoadOption {
	return func(o *loadOptions) {
		o.env = env
	}
}

// Load builds the configuration from defaults, the TOML file at path (which
// may be empty or missing) and the environment.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		fs:  loader.OSFS{},
		env: loader.NewEnvLoader(loader.Prefix),
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, file)
	}
	env, err := o.env.Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, env)

	cfg, err := fromMap(merged, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toMap(c *Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	return loader.Parse("<defaults>", data)
}

// fromMap decodes the merged layers. Unknown keys are rejected.
func fromMap(m map[string]any, source string) (*Config, error) {
	if source == "" {
		source = "<config>"
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	return &cfg, nil
}
