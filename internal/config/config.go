// Package config provides configuration management for bleak using Viper for
// loading from files, environment variables, and command-line flags.
//
// The configuration covers the chat server, the renderer policy (fallback
// element, which types take options, default option lists, type aliases),
// the question flow file, and logging. Values come from .bleak.yml with
// BLEAK_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/bleak/internal/validation"
)

// Fallback policies accepted in renderer.fallback besides a type name.
const (
	FallbackBuiltin = "builtin"
	FallbackNone    = "none"
)

// WildcardOptions is the default_options key used for any option type
// without its own entry.
const WildcardOptions = "*"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Renderer  RendererConfig  `mapstructure:"renderer" yaml:"renderer" json:"renderer"`
	Questions QuestionsConfig `mapstructure:"questions" yaml:"questions" json:"questions"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port" json:"port"`
	Host           string   `mapstructure:"host" yaml:"host" json:"host"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
	// Open launches a browser on the chat page after the server starts.
	Open bool `mapstructure:"open" yaml:"open" json:"open"`
}

type RendererConfig struct {
	// Fallback is "builtin", "none", or a registered type whose element
	// renders unknown types.
	Fallback string `mapstructure:"fallback" yaml:"fallback" json:"fallback"`
	// OptionTypes lists the types for which options are expected.
	OptionTypes []string `mapstructure:"option_types" yaml:"option_types" json:"option_types"`
	// DefaultOptions supplies options per type when a question has none.
	// The "*" entry applies to every option type without its own entry.
	DefaultOptions map[string][]string `mapstructure:"default_options" yaml:"default_options" json:"default_options"`
	// Aliases registers extra type names for existing types.
	Aliases map[string]string `mapstructure:"aliases" yaml:"aliases" json:"aliases"`
}

type QuestionsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(v, &config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	config := &Config{}
	applyDefaults(viper.New(), config)
	return config
}

func applyDefaults(v *viper.Viper, config *Config) {
	if config.Server.Port == 0 && !v.IsSet("server.port") {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}

	if config.Renderer.Fallback == "" {
		config.Renderer.Fallback = FallbackBuiltin
	}
	// An explicitly empty list means no type takes options.
	if !v.IsSet("renderer.option_types") && len(config.Renderer.OptionTypes) == 0 {
		config.Renderer.OptionTypes = []string{"radio", "multi_select", "select", "yes_no"}
	}
	if config.Renderer.DefaultOptions == nil {
		config.Renderer.DefaultOptions = map[string][]string{
			"yes_no":        {"Yes", "No"},
			WildcardOptions: {"Yes", "No"},
		}
	}
	if config.Renderer.Aliases == nil {
		config.Renderer.Aliases = make(map[string]string)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// ShouldHaveOptions reports whether questionType is configured to take options.
func (r RendererConfig) ShouldHaveOptions(questionType string) bool {
	for _, t := range r.OptionTypes {
		if t == questionType {
			return true
		}
	}
	return false
}

// DefaultOptionsFor returns the configured defaults for questionType, falling
// back to the wildcard entry. The second result is false when neither exists.
func (r RendererConfig) DefaultOptionsFor(questionType string) ([]string, bool) {
	if opts, ok := r.DefaultOptions[questionType]; ok {
		return append([]string(nil), opts...), true
	}
	if opts, ok := r.DefaultOptions[WildcardOptions]; ok {
		return append([]string(nil), opts...), true
	}
	return nil, false
}

// HasDefaultOptions reports whether any default-options policy is configured.
func (r RendererConfig) HasDefaultOptions() bool {
	return len(r.DefaultOptions) > 0
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateRendererConfig(&config.Renderer); err != nil {
		return fmt.Errorf("renderer config: %w", err)
	}
	if err := validateQuestionsConfig(&config.Questions); err != nil {
		return fmt.Errorf("questions config: %w", err)
	}
	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Port 0 lets the system assign one, which tests rely on.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if strings.ContainsAny(config.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("host contains invalid characters: %q", config.Host)
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateAllowedOrigin(origin); err != nil {
			return fmt.Errorf("allowed_origins: %w", err)
		}
	}
	return nil
}

func validateRendererConfig(config *RendererConfig) error {
	if strings.TrimSpace(config.Fallback) == "" {
		return fmt.Errorf("fallback must not be empty")
	}

	for _, t := range config.OptionTypes {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("option_types contains an empty type")
		}
	}

	for t, opts := range config.DefaultOptions {
		if len(opts) == 0 {
			return fmt.Errorf("default_options for %q is empty", t)
		}
	}

	aliases := make([]string, 0, len(config.Aliases))
	for alias := range config.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		target := config.Aliases[alias]
		if alias == "" || target == "" {
			return fmt.Errorf("alias %q -> %q must name both types", alias, target)
		}
		if alias == target {
			return fmt.Errorf("alias %q points at itself", alias)
		}
	}
	return nil
}

func validateQuestionsConfig(config *QuestionsConfig) error {
	if config.File == "" {
		return nil
	}

	cleanPath := filepath.Clean(config.File)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("file contains path traversal: %s", config.File)
	}

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".yml", ".yaml", ".json":
		return nil
	default:
		return fmt.Errorf("file must be .yml, .yaml or .json: %s", config.File)
	}
}

func validateLoggingConfig(config *LoggingConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown level %q", config.Level)
	}
	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", config.Format)
	}
	return nil
}
