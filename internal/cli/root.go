// Package cli wires the omni command tree: chat lifecycle, hierarchy
// management, provider consultation, search, and store maintenance.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/config"
	"github.com/omnichat/omni/internal/executor"
	execanthropic "github.com/omnichat/omni/internal/executor/anthropic"
	execgemini "github.com/omnichat/omni/internal/executor/gemini"
	execopenai "github.com/omnichat/omni/internal/executor/openai"
	"github.com/omnichat/omni/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "omni",
	Short: "Local knowledge store for AI conversations",
	Long: `omni keeps AI conversations as plain markdown documents in a local
directory tree, organized into namespaces, projects, chats, and
summaries. Chats can be sent to multiple providers, consulted in
parallel, and condensed into summaries that outlive them.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.omni/config.yaml)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configured or default config file, falling back
// to built-in defaults when none exists yet.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if !atomicfile.Exists(path) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore builds the full stack: config, logger, provider registry,
// store. Providers without an api_key are simply not registered.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	execs := executor.NewRegistry()
	for name, p := range cfg.Providers {
		if strings.TrimSpace(p.APIKey) == "" {
			continue
		}
		switch name {
		case "claude":
			e, err := execanthropic.New(p.APIKey, p.BaseURL, p.Model)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", name, err)
			}
			if err := execs.Register(e); err != nil {
				return nil, err
			}
		case "codex":
			e, err := execopenai.New(p.APIKey, p.BaseURL, p.Model)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", name, err)
			}
			if err := execs.Register(e); err != nil {
				return nil, err
			}
		case "gemini":
			e, err := execgemini.New(ctx, p.APIKey, p.Model)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", name, err)
			}
			if err := execs.Register(e); err != nil {
				return nil, err
			}
		default:
			log.Warn("unknown provider in config, skipped", "provider", name)
		}
	}

	return store.Open(store.Options{Config: cfg, Logger: log, Executors: execs})
}
