package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/provider"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Non-interactive setup: generate config.yaml",
	Long: `Generate config.yaml with default summary settings.
An existing config is never overwritten.

Examples:
  urlsummarizer init
  urlsummarizer init --onebot-url ws://127.0.0.1:3001
  urlsummarizer init --enable-llm --provider deepseek --api-key sk-xxx --telegram-token BOT_TOKEN`,
	RunE: runInit,
}

var (
	initProvider      string
	initModel         string
	initAPIKey        string
	initEnableLLM     bool
	initTelegramToken string
	initOneBotURL     string
)

func init() {
	initCmd.Flags().StringVar(&initProvider, "provider", "deepseek", "LLM provider used for post-processing")
	initCmd.Flags().StringVar(&initModel, "model", "", "Model type (defaults to provider's first supported model)")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "Provider API key (required with --enable-llm)")
	initCmd.Flags().BoolVar(&initEnableLLM, "enable-llm", false, "Enable LLM post-processing of summaries")
	initCmd.Flags().StringVar(&initTelegramToken, "telegram-token", "", "Telegram bot token (optional)")
	initCmd.Flags().StringVar(&initOneBotURL, "onebot-url", "", "OneBot v11 websocket URL (optional)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := buildInitConfig()
	if err != nil {
		return err
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(out, "Config already exists, skipping:", configPath)
		return nil
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintln(out, "Config created:", configPath)
	fmt.Fprintln(out, "Run 'urlsummarizer serve' to start.")
	return nil
}

func buildInitConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	providerName := strings.TrimSpace(initProvider)
	models := provider.SupportedModelsForProvider(providerName)
	if len(models) == 0 {
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", providerName, strings.Join(provider.SupportedProviders(), ", "))
	}
	modelType := strings.TrimSpace(initModel)
	if modelType == "" {
		modelType = models[0]
	}
	if err := provider.ValidateProviderModelType(providerName, modelType); err != nil {
		return nil, err
	}
	cfg.LLM.Provider = providerName
	cfg.LLM.ModelType = modelType

	apiKey := strings.TrimSpace(initAPIKey)
	if initEnableLLM && apiKey == "" {
		return nil, fmt.Errorf("--api-key is required with --enable-llm")
	}
	cfg.Summary.EnableLLMPostprocess = initEnableLLM
	if apiKey != "" {
		cfg.SetProviderAPIKey(apiKey)
	}

	if v := strings.TrimSpace(initTelegramToken); v != "" {
		cfg.Channels.Telegram.Token = v
	}
	if v := strings.TrimSpace(initOneBotURL); v != "" {
		cfg.Channels.OneBot.WSURL = v
	}
	return cfg, nil
}
