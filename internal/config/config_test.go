package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"missing root", func(c *Config) { c.StorageRoot = " " }, true},
		{"bad ttl", func(c *Config) { c.DefaultTTL = "one day" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"empty optional fields", func(c *Config) { c.DefaultTTL, c.LogFormat, c.LogLevel = "", "", "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestTTL(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.DefaultTTL = "30m"
	if got := cfg.TTL(); got != 30*time.Minute {
		t.Fatalf("got=%v, want 30m", got)
	}
	cfg.DefaultTTL = ""
	if got := cfg.TTL(); got != 24*time.Hour {
		t.Fatalf("fallback: got=%v, want 24h", got)
	}
	cfg.DefaultTTL = "-5m"
	if got := cfg.TTL(); got != 24*time.Hour {
		t.Fatalf("negative ttl: got=%v, want 24h", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.DefaultProvider = "claude"
	cfg.Providers = map[string]Provider{
		"claude": {APIKey: "sk-test", Model: "claude-sonnet-4-5"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DefaultProvider != "claude" {
		t.Fatalf("default_provider: got=%q", got.DefaultProvider)
	}
	if got.Providers["claude"].APIKey != "sk-test" {
		t.Fatalf("provider lost: got=%+v", got.Providers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.LogLevel = "info"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("load of missing file succeeded")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "text", ""} {
		if _, err := NewLogger(format, "debug"); err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
	}
	if _, err := NewLogger("xml", "info"); err == nil {
		t.Fatal("unknown format accepted")
	}
	if _, err := NewLogger("json", "loud"); err == nil {
		t.Fatal("unknown level accepted")
	}
}
