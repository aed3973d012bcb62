package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/polish"
	"github.com/linanwx/urlsummarizer/provider"
)

func printPostprocessNotice(cfg *config.Config) {
	writePostprocessNotice(os.Stderr, cfg)
}

// writePostprocessNotice warns about post-processing settings that make every
// call fall back to the raw summary.
func writePostprocessNotice(w io.Writer, cfg *config.Config) {
	for _, problem := range postprocessProblems(cfg) {
		fmt.Fprintln(w, "[urlsummarizer] Warning: "+problem+"; raw summaries will be sent.")
	}
}

func postprocessProblems(cfg *config.Config) []string {
	if cfg == nil || !cfg.Summary.EnableLLMPostprocess {
		return nil
	}

	var problems []string
	if _, err := polish.Render(cfg.Summary.LLMPromptTemplate, ""); err != nil {
		problems = append(problems, "llm_prompt_template does not contain "+polish.Placeholder)
	}

	name := strings.TrimSpace(cfg.Summary.Provider)
	if name == "" {
		name = cfg.GetProvider()
	}
	if len(provider.SupportedModelsForProvider(name)) == 0 {
		problems = append(problems, fmt.Sprintf("unknown post-processing provider %q", name))
	}
	return problems
}
