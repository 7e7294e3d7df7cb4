// Package config defines the server configuration and its YAML loader.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Default and by Load for omitted fields.
const (
	DefaultPort            = 8080
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultClientIDCookie  = "__pmid"
	DefaultForwardTimeout  = 30
	DefaultMaxRedirects    = 5
	DefaultMaxBodyBytes    = 10 * 1024 * 1024
	DefaultEventBufferSize = 64
)

// Config is the full server configuration.
type Config struct {
	Port            int     `json:"port" yaml:"port"`
	Host            string  `json:"host,omitempty" yaml:"host,omitempty"`
	LogLevel        string  `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat       string  `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	ClientIDCookie  string  `json:"clientIDCookie,omitempty" yaml:"clientIDCookie,omitempty"`
	StaticDir       string  `json:"staticDir,omitempty" yaml:"staticDir,omitempty"`
	RulesFile       string  `json:"rulesFile,omitempty" yaml:"rulesFile,omitempty"`
	WatchRules      bool    `json:"watchRules,omitempty" yaml:"watchRules,omitempty"`
	EventBufferSize int     `json:"eventBufferSize,omitempty" yaml:"eventBufferSize,omitempty"`
	Forward         Forward `json:"forward,omitempty" yaml:"forward,omitempty"`
}

// Forward configures upstream relaying.
type Forward struct {
	TimeoutSeconds int   `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	MaxRedirects   int   `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	MaxBodyBytes   int64 `json:"maxBodyBytes,omitempty" yaml:"maxBodyBytes,omitempty"`
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		ClientIDCookie:  DefaultClientIDCookie,
		EventBufferSize: DefaultEventBufferSize,
		Forward: Forward{
			TimeoutSeconds: DefaultForwardTimeout,
			MaxRedirects:   DefaultMaxRedirects,
			MaxBodyBytes:   DefaultMaxBodyBytes,
		},
	}
}

// Load reads a YAML configuration file, fills omitted fields with defaults
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults for fields explicitly set to their zero
// value in the file.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.ClientIDCookie == "" {
		c.ClientIDCookie = DefaultClientIDCookie
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = DefaultEventBufferSize
	}
	if c.Forward.TimeoutSeconds <= 0 {
		c.Forward.TimeoutSeconds = DefaultForwardTimeout
	}
	if c.Forward.MaxRedirects <= 0 {
		c.Forward.MaxRedirects = DefaultMaxRedirects
	}
	if c.Forward.MaxBodyBytes <= 0 {
		c.Forward.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be text or json, got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return fmt.Errorf("staticDir: %w", err)
		}
		if !info.IsDir() {
			return errors.New("staticDir is not a directory")
		}
	}
	return nil
}
