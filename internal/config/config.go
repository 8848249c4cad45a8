// Package config holds the on-disk configuration for omni.
//
// The store receives a validated Config at construction and never watches
// for changes: configuration is an immutable snapshot per process.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/omnichat/omni/internal/atomicfile"
)

// Provider is the per-provider executor configuration.
type Provider struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type Config struct {
	// StorageRoot is the knowledge-store root directory.
	StorageRoot string `yaml:"storage_root"`
	// DefaultProvider is the executor used when none is named.
	DefaultProvider string `yaml:"default_provider,omitempty"`
	// DefaultTTL is the expiry applied to temporary chats, as a Go
	// duration string, e.g. "24h".
	DefaultTTL string `yaml:"default_ttl,omitempty"`

	// LogFormat is "json" or "text".
	LogFormat string `yaml:"log_format,omitempty"`
	// LogLevel is "debug|info|warn|error".
	LogLevel string `yaml:"log_level,omitempty"`

	Providers map[string]Provider `yaml:"providers,omitempty"`
}

const defaultTTL = 24 * time.Hour

// Default returns a config rooted at ~/.omni.
func Default() *Config {
	root := ".omni"
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		root = filepath.Join(home, ".omni")
	}
	return &Config{
		StorageRoot: root,
		DefaultTTL:  defaultTTL.String(),
		LogFormat:   "text",
		LogLevel:    "info",
	}
}

// DefaultConfigPath returns ~/.omni/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "omni.config.yaml"
	}
	return filepath.Join(home, ".omni", "config.yaml")
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(c.StorageRoot) == "" {
		return errors.New("missing storage_root")
	}
	if strings.TrimSpace(c.DefaultTTL) != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(c.DefaultTTL)); err != nil {
			return fmt.Errorf("invalid default_ttl: %w", err)
		}
	}
	switch strings.TrimSpace(c.LogFormat) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	switch strings.TrimSpace(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// TTL returns the default expiry for temporary chats.
func (c *Config) TTL() time.Duration {
	if c == nil {
		return defaultTTL
	}
	raw := strings.TrimSpace(c.DefaultTTL)
	if raw == "" {
		return defaultTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultTTL
	}
	return d
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config atomically, creating parent directories.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.Replace(path, b)
}

// NewLogger builds a slog logger from the configured format and level.
func NewLogger(format string, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.TrimSpace(level) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.TrimSpace(format) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "", "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}
