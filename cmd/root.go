// Package cmd provides CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/provider"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	logLevelOverride string
	configDirFlag    string
)

// rootCmd is the root command.
var rootCmd = &cobra.Command{
	Use:           "urlsummarizer",
	Short:         "urlsummarizer - reply to group chat links with article summaries",
	Long:          buildRootLong(),
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func buildRootLong() string {
	var sb strings.Builder
	sb.WriteString("urlsummarizer watches group chats for links, asks a remote summary\n")
	sb.WriteString("service about each qualifying URL and replies with the result.\n\n")
	sb.WriteString("Optional LLM post-processing providers:\n")

	for _, name := range provider.SupportedProviders() {
		models := provider.SupportedModelsForProvider(name)
		if len(models) > 0 {
			sb.WriteString(fmt.Sprintf("  - %s (%s)\n", name, strings.Join(models, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	sb.WriteString("\nGet started with: urlsummarizer init")
	return sb.String()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.urlsummarizer)")
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level for this run (debug, info, warn, error)")
	rootCmd.PersistentPreRunE = initRuntime
}

// initRuntime applies --config-dir and configures the logger from the
// config file, falling back to defaults when none exists yet.
func initRuntime(_ *cobra.Command, _ []string) error {
	if configDirFlag != "" {
		config.SetConfigDir(configDirFlag)
	}

	level := strings.ToLower(strings.TrimSpace(logLevelOverride))
	switch level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %q (use debug, info, warn, error)", logLevelOverride)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if level != "" {
		cfg.Logging.Level = level
	}

	configDir, _ := config.ConfigDir()
	logEnabled := true
	if cfg.Logging.Enabled != nil {
		logEnabled = *cfg.Logging.Enabled
	}

	logCfg := logger.Config{
		Enabled: logEnabled,
		Level:   cfg.Logging.Level,
		Stdout:  cfg.Logging.Stdout,
		File:    cfg.Logging.File,
	}

	if err := logger.Init(logCfg, configDir); err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	return nil
}
