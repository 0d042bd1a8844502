package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/dedup"
	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/extract/adapters"
	"github.com/ppiankov/calscrape/internal/model"
)

// EventType names a progress notification
type EventType string

const (
	EventSourceStarted EventType = "source_started"
	EventSourceDone    EventType = "source_done"
	EventCategoryDone  EventType = "category_done"
)

// Event is a progress notification emitted while a category runs
type Event struct {
	Type     EventType
	RunID    string
	Category model.Category
	Source   string
	Strategy model.Strategy
	Count    int
	Err      error
}

// SourceReport summarizes one source of a run
type SourceReport struct {
	Source   string         `json:"source"`
	URL      string         `json:"url"`
	Strategy model.Strategy `json:"strategy,omitempty"`
	Entries  int            `json:"entries"`
	Error    string         `json:"error,omitempty"`
	Skipped  bool           `json:"skipped,omitempty"`
}

// Result is the outcome of one category run
type Result struct {
	RunID       string
	Category    model.Category
	GeneratedAt time.Time
	Entries     []model.Entry
	Sources     []SourceReport
}

// Config wires a Pipeline
type Config struct {
	Sources        []model.Source
	BlockedDomains []string

	// Fetcher loads listing pages
	Fetcher  extract.PageFetcher
	Selector *adapters.Selector
	Dedup    *dedup.Deduplicator
	Logger   zerolog.Logger

	// Progress receives notifications; nil discards them
	Progress func(Event)

	// Now stamps results; defaults to time.Now
	Now func() time.Time
}

// Pipeline runs every configured source of a category one at a time and
// merges their entries
type Pipeline struct {
	sources  []model.Source
	blocked  []string
	fetcher  extract.PageFetcher
	selector *adapters.Selector
	dedup    *dedup.Deduplicator
	logger   zerolog.Logger
	progress func(Event)
	now      func() time.Time
}

// New creates a new pipeline with the given configuration
func New(cfg Config) *Pipeline {
	if cfg.Dedup == nil {
		cfg.Dedup = dedup.New(dedup.DefaultSimilarity, cfg.Logger)
	}
	if cfg.Progress == nil {
		cfg.Progress = func(Event) {}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		sources:  cfg.Sources,
		blocked:  cfg.BlockedDomains,
		fetcher:  cfg.Fetcher,
		selector: cfg.Selector,
		dedup:    cfg.Dedup,
		logger:   cfg.Logger,
		progress: cfg.Progress,
		now:      cfg.Now,
	}
}

// Run extracts, merges and sorts the entries of every enabled source of a
// category. A failing source contributes no entries but never aborts the run;
// the only error is an invalid category or a cancelled context.
func (p *Pipeline) Run(ctx context.Context, category model.Category) (*Result, error) {
	if _, err := model.ParseCategory(string(category)); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Str("category", string(category)).Logger()
	sources := model.SourcesFor(p.sources, category)

	logger.Info().Int("sources", len(sources)).Msg("Category run started")

	result := &Result{
		RunID:    runID,
		Category: category,
	}

	var all []model.Entry
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s: %w", category, err)
		}

		report := SourceReport{Source: src.Label(), URL: src.URL}
		if err := src.Validate(p.blocked); err != nil {
			report.Skipped = true
			report.Error = err.Error()
			result.Sources = append(result.Sources, report)
			logger.Warn().Err(err).Str("source", src.Label()).Msg("Skipping source")
			continue
		}

		report.Strategy = p.selector.Resolve(src)
		p.progress(Event{Type: EventSourceStarted, RunID: runID, Category: category, Source: src.Label(), Strategy: report.Strategy})

		entries, err := p.runSource(ctx, src, logger)
		report.Entries = len(entries)
		if err != nil {
			report.Error = err.Error()
		}
		result.Sources = append(result.Sources, report)
		all = append(all, entries...)

		p.progress(Event{Type: EventSourceDone, RunID: runID, Category: category, Source: src.Label(), Strategy: report.Strategy, Count: len(entries), Err: err})
	}

	result.Entries = SortByStart(p.dedup.Merge(category, all))
	result.GeneratedAt = p.now().UTC()

	logger.Info().
		Int("extracted", len(all)).
		Int("entries", len(result.Entries)).
		Msg("Category run finished")
	p.progress(Event{Type: EventCategoryDone, RunID: runID, Category: category, Count: len(result.Entries)})

	return result, nil
}

// RunSource extracts one source outside a category run. Unlike Run it
// reports validation and fetch failures to the caller.
func (p *Pipeline) RunSource(ctx context.Context, src model.Source) ([]model.Entry, error) {
	if err := src.Validate(p.blocked); err != nil {
		return nil, err
	}
	entries, err := p.runSource(ctx, src, p.logger)
	if err != nil {
		return nil, err
	}
	return SortByStart(p.dedup.Merge(src.Category, entries)), nil
}

func (p *Pipeline) runSource(ctx context.Context, src model.Source, logger zerolog.Logger) ([]model.Entry, error) {
	strategy := p.selector.Select(src)
	log := logger.With().Str("source", src.Label()).Str("strategy", strategy.Name()).Logger()

	start := time.Now()
	body, err := p.fetcher.FetchPage(ctx, src.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", src.URL).Msg("Failed to fetch listing page")
		return nil, fmt.Errorf("fetch %s: %w", src.URL, err)
	}

	page, err := extract.NewPage(src.URL, body)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse listing page")
		return nil, err
	}

	entries, err := strategy.Extract(ctx, page, src)
	if err != nil {
		log.Warn().Err(err).Msg("Extraction failed")
		return nil, fmt.Errorf("extract %s: %w", src.Label(), err)
	}

	for i := range entries {
		if entries[i].Source == "" {
			entries[i].Source = src.Label()
		}
	}

	log.Info().
		Int("entries", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Source extracted")
	return entries, nil
}

// SortByStart orders entries by start; ties keep their merged order
func SortByStart(entries []model.Entry) []model.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})
	return entries
}

// IsBlocked reports whether err is a blocked-source rejection
func IsBlocked(err error) bool {
	return errors.Is(err, model.ErrBlockedSource)
}
