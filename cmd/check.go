package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/pipeline"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <message text>",
	Short: "Show which URLs in a message would be summarized",
	Long: `Run URL extraction and the filter rules against a message without
contacting any service. With --fetch the full pipeline runs and the replies
are printed instead of sent.

Examples:
  urlsummarizer check "see https://example.com/a" --group 123456
  urlsummarizer check "tldr https://example.com/a" --fetch`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var (
	checkGroup string
	checkFetch bool
)

func init() {
	checkCmd.Flags().StringVar(&checkGroup, "group", "cli", "Group ID the message is posted in")
	checkCmd.Flags().BoolVar(&checkFetch, "fetch", false, "Fetch summaries and print the replies")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
		fmt.Fprintln(os.Stderr, "No config found, using defaults.")
	}

	p := buildPipeline(cfg)
	msg := pipeline.Message{Text: args[0], GroupID: checkGroup}
	writeDecisions(cmd.OutOrStdout(), p, msg)

	if !checkFetch {
		return nil
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, messageDeadline(cfg))
	defer cancel()

	replies := p.Handle(ctx, msg)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nReplies: %d\n", len(replies))
	for _, r := range replies {
		fmt.Fprintf(out, "\n%s\n", r.String())
	}
	return nil
}

func writeDecisions(w io.Writer, p *pipeline.Pipeline, msg pipeline.Message) {
	decisions := p.Inspect(msg)
	if len(decisions) == 0 {
		fmt.Fprintln(w, "No URLs found.")
		return
	}
	if !p.Enabled() {
		fmt.Fprintln(w, "Summary replies are disabled; decisions below are informational.")
	}
	for _, d := range decisions {
		verdict := "summarize"
		if !d.Allowed {
			verdict = "skip (" + d.Reason.String() + ")"
		}
		fmt.Fprintf(w, "%s\t%s\n", d.URL.Cleaned, verdict)
	}
}
