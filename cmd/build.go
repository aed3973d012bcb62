package cmd

import (
	"github.com/linanwx/urlsummarizer/config"
	"github.com/linanwx/urlsummarizer/logger"
	"github.com/linanwx/urlsummarizer/pipeline"
	"github.com/linanwx/urlsummarizer/polish"
	"github.com/linanwx/urlsummarizer/provider"
	"github.com/linanwx/urlsummarizer/summary"
)

// buildPipeline wires the summary client, retrying fetcher and optional
// polisher from cfg.
func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	client := summary.NewClient(cfg.SummaryServiceURL(), nil)
	fetcher := summary.NewFetcher(client, cfg.SummaryTimeout(), cfg.SummaryMaxRetries())

	var resolver polish.Resolver
	if cfg.Summary.EnableLLMPostprocess {
		factory, err := provider.NewFactory(cfg)
		if err != nil {
			logger.Warn("llm postprocess unavailable, raw summaries will be sent", "err", err)
		} else {
			resolver = factory
		}
	}

	return pipeline.New(cfg, fetcher, polish.New(cfg, resolver))
}
