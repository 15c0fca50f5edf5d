package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/citecheck/citecheck/internal/cache"
	"github.com/citecheck/citecheck/internal/extract"
	"github.com/citecheck/citecheck/internal/factcheck"
	"github.com/citecheck/citecheck/internal/llm"
	"github.com/citecheck/citecheck/internal/model"
	"github.com/citecheck/citecheck/internal/pipeline"
	"github.com/citecheck/citecheck/internal/suggest"
	"github.com/citecheck/citecheck/internal/util"
	"github.com/citecheck/citecheck/internal/verify"
)

// robotsAgent identifies us to fact-check sites' robots.txt.
const robotsAgent = "citecheck/0.2 (+https://github.com/citecheck/citecheck)"

// buildPipeline is the composition root: one capability client, one cache,
// and the five pipeline stages wired together. Everything is explicitly
// constructed and injected so tests can substitute any stage.
func buildPipeline(cfg *model.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	client, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	memCache := cache.NewMemoryCache(cfg.FactCheck.CacheTTL)

	var opts []factcheck.Option
	if cfg.FactCheck.RespectRobots {
		robots := util.NewRobotsChecker(robotsAgent, cfg.FactCheck.SiteTimeout, memCache, cfg.FactCheck.CacheTTL)
		opts = append(opts, factcheck.WithRobots(robots))
	}
	opts = append(opts, factcheck.WithLogger(logger))

	return pipeline.NewPipeline(
		extract.NewExtractor(client),
		pipeline.NewFetcher(cfg.HTTP, cfg.Concurrency.FetchWorkers),
		verify.NewVerifier(client),
		factcheck.NewAggregator(client, cfg.FactCheck, memCache, opts...),
		suggest.NewSuggester(client),
		cfg.Concurrency,
		logger,
	), nil
}

// newLogger builds the process logger; verbose switches to development
// encoding with debug level.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
