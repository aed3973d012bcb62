package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/internal/health"
	"github.com/linanwx/urlsummarizer/provider"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show urlsummarizer configuration status",
	Long:  `Display the effective summary settings, validation result and channel setup.`,
	RunE:  runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(out, "Status: Not configured")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'urlsummarizer init' to create a config.")
		return nil
	}

	snap := health.Collect(health.Options{Summary: summaryInfo(cfg)})
	if statusJSON {
		data, err := snap.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, data)
		return nil
	}

	fmt.Fprint(out, health.FormatText(snap))
	if cfg.Summary.EnableLLMPostprocess {
		fmt.Fprintln(out)
		if _, err := provider.NewFactory(cfg); err != nil {
			fmt.Fprintln(out, "LLM Provider: NOT READY:", err)
		} else {
			fmt.Fprintln(out, "LLM Provider: Configured")
		}
		writePostprocessNotice(out, cfg)
	}
	return nil
}

func summaryInfo(cfg *config.Config) *health.SummaryInfo {
	info := &health.SummaryInfo{
		Enabled:     cfg.SummaryEnabled(),
		ServiceURL:  cfg.SummaryServiceURL(),
		Timeout:     cfg.SummaryTimeout().String(),
		MaxRetries:  cfg.SummaryMaxRetries(),
		Postprocess: cfg.Summary.EnableLLMPostprocess,
	}
	if path, err := config.ConfigPath(); err == nil {
		info.ConfigPath = path
	}
	if err := cfg.Validate(); err != nil {
		info.ConfigError = err.Error()
		info.Enabled = false
	}
	if info.Postprocess {
		info.Provider = cfg.Summary.Provider
		if info.Provider == "" {
			info.Provider = cfg.GetProvider()
		}
	}
	if cfg.GetTelegramToken() != "" {
		info.Channels = append(info.Channels, "telegram")
	}
	if cfg.GetOneBotURL() != "" {
		info.Channels = append(info.Channels, "onebot")
	}
	return info
}
