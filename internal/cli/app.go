package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/cache"
	"github.com/ppiankov/calscrape/internal/dedup"
	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/extract/adapters"
	"github.com/ppiankov/calscrape/internal/llm"
	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/pipeline"
	"github.com/ppiankov/calscrape/internal/worker"
)

// app holds the components shared by the commands
type app struct {
	cfg      *model.Config
	logger   zerolog.Logger
	service  *llm.Service
	fetcher  *pipeline.Fetcher
	selector *adapters.Selector
	pipeline *pipeline.Pipeline
}

type appOptions struct {
	noCache  bool
	progress io.Writer
}

// newApp wires the pipeline from configuration. A provider that cannot be
// built is logged and the LLM strategies degrade to structural.
func newApp(cfg *model.Config, logger zerolog.Logger, opts appOptions) (*app, error) {
	llmCfg := llm.ApplyEnv(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		logger.Warn().Err(err).Str("provider", llmCfg.Provider).Msg("Extraction service unavailable, using structural extraction")
		provider = nil
	}
	service := llm.NewService(provider, llmCfg, logger)

	var completer extract.Completer
	if service.Enabled() {
		completer = service
	}

	var pageCache cache.Cache
	if cfg.Cache.Enabled && !opts.noCache {
		pageCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for _, d := range cfg.RateLimiting.Domains {
		limiter.SetDomainRate(d.Domain, d.RequestsPerSecond, d.BurstSize)
	}

	fetcher := pipeline.NewFetcher(pipeline.FetcherConfig{
		Timeout:      cfg.HTTP.Timeout,
		UserAgent:    cfg.HTTP.UserAgent,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		MaxAttempts:  cfg.HTTP.MaxAttempts,
		InsecureTLS:  cfg.HTTP.InsecureTLS,
		HTTPProxy:    cfg.HTTP.HTTPProxy,
		HTTPSProxy:   cfg.HTTP.HTTPSProxy,
		NoProxy:      cfg.HTTP.NoProxy,
		Cache:        pageCache,
		CacheTTL:     cfg.Cache.DiskTTL,
		Limiter:      limiter,
		Logger:       logger,
	})

	fin := extract.NewFinalizer(time.Now, extract.OptionsFromConfig(cfg.Extraction), logger)
	selector := adapters.NewSelector(adapters.SelectorConfig{
		Registry:    adapters.NewRegistry(),
		Finalizer:   fin,
		Completer:   completer,
		Fetcher:     fetcher,
		Budgets:     extract.BudgetsFromConfig(cfg.Extraction),
		DetailDelay: cfg.Extraction.DetailDelay,
		Logger:      logger,
	})

	if err := normalizeSources(cfg.Sources); err != nil {
		return nil, err
	}

	var progress func(pipeline.Event)
	if opts.progress != nil {
		progress = progressPrinter(opts.progress)
	}

	p := pipeline.New(pipeline.Config{
		Sources:        cfg.Sources,
		BlockedDomains: cfg.BlockedDomains,
		Fetcher:        fetcher,
		Selector:       selector,
		Dedup:          dedup.New(cfg.Extraction.AttractionSimilarity, logger),
		Logger:         logger,
		Progress:       progress,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		fetcher:  fetcher,
		selector: selector,
		pipeline: p,
	}, nil
}

// progressPrinter renders pipeline events as terminal lines
func progressPrinter(w io.Writer) func(pipeline.Event) {
	return func(e pipeline.Event) {
		switch e.Type {
		case pipeline.EventSourceStarted:
			_, _ = fmt.Fprintf(w, "⚙️  %s: %s (%s)\n", e.Category, e.Source, e.Strategy)
		case pipeline.EventSourceDone:
			if e.Err != nil {
				_, _ = fmt.Fprintf(w, "✗ %s: %v\n", e.Source, e.Err)
				return
			}
			_, _ = fmt.Fprintf(w, "✓ %s: %d entries\n", e.Source, e.Count)
		case pipeline.EventCategoryDone:
			_, _ = fmt.Fprintf(w, "✓ %s complete: %d entries\n\n", e.Category, e.Count)
		}
	}
}

// parseCategories validates the requested categories; none means all
func parseCategories(names []string) ([]model.Category, error) {
	if len(names) == 0 {
		return append([]model.Category(nil), model.AllCategories...), nil
	}

	seen := make(map[model.Category]bool)
	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		category, err := model.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}
	return categories, nil
}

// normalizeSources lowercases categories and strategies in place so config
// files may write "Events" or "LLM_Two_Stage"
func normalizeSources(sources []model.Source) error {
	for i := range sources {
		category, err := model.ParseCategory(string(sources[i].Category))
		if err != nil {
			return fmt.Errorf("source %s: %w", sources[i].Label(), err)
		}
		strategy, err := model.ParseStrategy(string(sources[i].Strategy))
		if err != nil {
			return fmt.Errorf("source %s: %w", sources[i].Label(), err)
		}
		sources[i].Category = category
		sources[i].Strategy = strategy
	}
	return nil
}
