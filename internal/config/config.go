package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend override values. Empty selects a backend automatically.
const (
	BackendDesktop = "desktop"
	BackendKMS     = "kms"
)

// Transports the MCP server can be exposed on.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds the runtime configuration for the screenshot server.
type Config struct {
	// Backend forces a capture backend ("desktop" or "kms"). Empty means
	// automatic selection from the environment.
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`

	// Device pins the KMS backend to a single DRM node, e.g.
	// /dev/dri/card1. Empty scans /dev/dri/card* in order.
	Device string `yaml:"device" json:"device" mapstructure:"device"`

	// Transport is "stdio" (default) or "http".
	Transport string `yaml:"transport" json:"transport" mapstructure:"transport"`

	// HTTPAddr is the listen address when the transport is "http".
	HTTPAddr string `yaml:"http_addr" json:"http_addr" mapstructure:"http_addr"`

	LogLevel  string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format" mapstructure:"log_format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Transport: TransportStdio,
		HTTPAddr:  ":8080",
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mcp-screenshot", "config.yaml"), nil
}

// Bind registers defaults and MCP_SCREENSHOT_* environment bindings on v.
// Flag bindings are added by the CLI before Load is called.
func Bind(v *viper.Viper) {
	def := Default()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("device", def.Device)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("http_addr", def.HTTPAddr)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetEnvPrefix("MCP_SCREENSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the config file into v and unmarshals the effective
// configuration. cfgFile == "" falls back to DefaultPath; a missing default
// file is not an error, a missing explicit file is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	Bind(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(filepath.Join(home, ".config", "mcp-screenshot"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks constraints flag parsing cannot catch. Backend values are
// validated by the backend selector, which owns the accepted set.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (use %q or %q)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.Transport == TransportHTTP && c.HTTPAddr == "" {
		return fmt.Errorf("http transport requires http_addr")
	}
	return nil
}
