package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/urlsummarizer/internal/health"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show process health information",
	Long:  `Display current process health including memory usage, goroutines, and runtime.`,
	RunE:  runHealth,
}

var healthJSON bool

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	snap := health.Collect(health.Options{})
	if healthJSON {
		data, err := snap.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), data)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), health.FormatText(snap))
	return nil
}
