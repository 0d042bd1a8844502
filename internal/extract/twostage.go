package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/datetime"
	"github.com/ppiankov/calscrape/internal/model"
)

// pauseFunc waits between detail page fetches; tests replace it
var pauseFunc = time.Sleep

// DefaultDetailDelay is the pause between consecutive detail fetches
const DefaultDetailDelay = time.Second

// listingItem is a Stage-1 item with its listing date resolved
type listingItem struct {
	cand   model.Candidate
	date   time.Time
	dated  bool
	hhmm   string
	detail bool
}

func (it listingItem) start() time.Time {
	return datetime.Combine(it.date, it.hhmm)
}

// TwoStage extracts a listing page, then re-reads each item's detail page
// to confirm its dates. Detail failures fall back to the listing date.
type TwoStage struct {
	fin       *Finalizer
	completer Completer
	fetcher   PageFetcher
	listing   CandidateSource
	delay     time.Duration
	budget    int
	logger    zerolog.Logger
}

// TwoStageConfig wires a TwoStage resolver
type TwoStageConfig struct {
	Finalizer *Finalizer
	Completer Completer
	Fetcher   PageFetcher

	// Listing extracts Stage 1. Known, structurally stable sites pass their
	// site adapter; otherwise the single-pass LLM extractor is used.
	Listing CandidateSource

	DetailDelay  time.Duration
	DetailBudget int
	Logger       zerolog.Logger
}

// NewTwoStage creates a two-stage resolver
func NewTwoStage(cfg TwoStageConfig) *TwoStage {
	if cfg.DetailDelay <= 0 {
		cfg.DetailDelay = DefaultDetailDelay
	}
	if cfg.DetailBudget <= 0 {
		cfg.DetailBudget = DefaultBudgets().Detail
	}
	return &TwoStage{
		fin:       cfg.Finalizer,
		completer: cfg.Completer,
		fetcher:   cfg.Fetcher,
		listing:   cfg.Listing,
		delay:     cfg.DetailDelay,
		budget:    cfg.DetailBudget,
		logger:    cfg.Logger,
	}
}

// Name returns the strategy name
func (t *TwoStage) Name() string {
	return string(model.StrategyLLMTwoStage)
}

// Extract implements Strategy
func (t *TwoStage) Extract(ctx context.Context, page *Page, src model.Source) ([]model.Entry, error) {
	if t.listing == nil {
		return nil, errors.New("two-stage resolver has no listing extractor")
	}

	items := t.stageOne(ctx, page, src.Category)
	t.logger.Info().
		Str("source", src.Label()).
		Int("items", len(items)).
		Msg("Stage 1 complete")

	var detailed, direct []model.Entry
	fetched := 0
	for _, it := range items {
		if !it.detail {
			if e, ok := t.listingEntry(it, src); ok {
				direct = append(direct, e)
			}
			continue
		}

		if fetched > 0 {
			pauseFunc(t.delay)
		}
		fetched++
		detailed = append(detailed, t.stageTwo(ctx, it, src)...)
	}

	t.logger.Info().
		Str("source", src.Label()).
		Int("detail_pages", fetched).
		Int("detailed", len(detailed)).
		Int("direct", len(direct)).
		Msg("Stage 2 complete")

	merged := uniqueURLDateTitle(append(detailed, direct...))
	return t.fin.Expand(merged), nil
}

// stageOne extracts listing candidates, cleans their titles, resolves the
// listing date and partitions by detail URL. Items repeat at most once per
// (title, listing date).
func (t *TwoStage) stageOne(ctx context.Context, page *Page, category model.Category) []listingItem {
	norm := t.fin.Normalizer()
	cands := t.listing.Candidates(ctx, page, category)

	seen := make(map[string]bool, len(cands))
	items := make([]listingItem, 0, len(cands))
	for _, c := range cands {
		if c.Status.Dropped() {
			t.fin.drop(c.Title, string(c.Status))
			continue
		}
		c.Title = CleanTitle(category, c.Title)
		if IsJunkTitle(c.Title) {
			t.fin.drop(c.Title, "junk_title")
			continue
		}
		c.URL = ResolveURL(page.URL, c.URL)

		it := listingItem{cand: c}
		if category.IsDated() {
			it.date, it.dated = norm.ParseDate(c.DateHint)
		} else {
			it.date, it.dated = norm.Today(), true
		}
		it.hhmm = norm.Time(c.TimeHint, c.Context, category, c.Title)
		it.detail = HasDetailURL(page.URL, c.URL)

		key := strings.ToLower(c.Title) + "|"
		if it.dated {
			key += it.date.Format(model.DateLayout)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, it)
	}
	return items
}

// listingEntry emits an item on its listing date, subject to the past-date
// rule. Items without a listing date fall back to the normalizer default.
func (t *TwoStage) listingEntry(it listingItem, src model.Source) (model.Entry, bool) {
	start := it.start()
	if !it.dated {
		start = t.fin.Normalizer().Start(it.cand, src.Category)
	}
	e := t.fin.Build(it.cand, start, "", src.ID)
	if !t.fin.Keep(e, src.Category) {
		t.fin.drop(e.Title, "past_date")
		return model.Entry{}, false
	}
	return e, true
}

// fallback emits the item on its listing date after a failed or empty
// detail pass. Undated items are dropped.
func (t *TwoStage) fallback(it listingItem, src model.Source) []model.Entry {
	if !it.dated {
		t.fin.drop(it.cand.Title, "no_date")
		return nil
	}
	e := t.fin.Build(it.cand, it.start(), "", src.ID)
	if !t.fin.Keep(e, src.Category) {
		t.fin.drop(e.Title, "past_date")
		return nil
	}
	return []model.Entry{e}
}

// stageTwo resolves one item against its detail page
func (t *TwoStage) stageTwo(ctx context.Context, it listingItem, src model.Source) []model.Entry {
	log := t.logger.With().Str("source", src.Label()).Str("url", it.cand.URL).Logger()

	result, err := t.detail(ctx, it, src.Category)
	if err != nil {
		log.Warn().Err(err).Msg("Detail resolution failed, using listing date")
		return t.fallback(it, src)
	}

	if result.Status.Dropped() {
		t.fin.drop(it.cand.Title, string(result.Status))
		return nil
	}

	c := it.cand
	if corrected := CleanTitle(src.Category, result.CorrectedTitle); corrected != "" && !IsJunkTitle(corrected) {
		c.Title = corrected
	}
	if result.Description != "" {
		c.Description = result.Description
	}
	if result.RecurringPattern != "" {
		c.RecurringPattern = result.RecurringPattern
	}

	if len(result.Dates) == 0 {
		log.Debug().Msg("Detail page has no dates, using listing date")
		return t.fallback(listingItem{cand: c, date: it.date, dated: it.dated, hhmm: it.hhmm}, src)
	}

	hhmm := it.hhmm
	if tm, ok := datetime.ExtractTime(result.Time); ok {
		hhmm = tm
	}

	norm := t.fin.Normalizer()
	var out []model.Entry
	parsed := 0
	for _, d := range result.Dates {
		date, ok := norm.ParseDate(d)
		if !ok {
			log.Debug().Str("date", d).Msg("Unparseable detail date")
			continue
		}
		parsed++
		e := t.fin.Build(c, datetime.Combine(date, hhmm), "", src.ID)
		if !t.fin.Keep(e, src.Category) {
			t.fin.drop(e.Title, "past_date")
			continue
		}
		out = append(out, e)
	}
	if parsed == 0 {
		log.Debug().Msg("No detail date parsed, using listing date")
		return t.fallback(listingItem{cand: c, date: it.date, dated: it.dated, hhmm: hhmm}, src)
	}
	return out
}

// detail fetches a detail page and asks the extraction service for its
// status, dates, time and description
func (t *TwoStage) detail(ctx context.Context, it listingItem, category model.Category) (DetailResult, error) {
	page, err := fetchPage(ctx, t.fetcher, it.cand.URL)
	if err != nil {
		return DetailResult{}, err
	}

	listingDate := ""
	if it.dated {
		listingDate = it.date.Format(model.DateLayout)
	}
	prompt := DetailPrompt(category, it.cand.Title, listingDate, DetailText(page.Doc, t.budget), t.fin.Today())

	resp, err := t.completer.Complete(ctx, category, prompt)
	if err != nil {
		return DetailResult{}, err
	}
	return ParseDetail(resp)
}

// uniqueURLDateTitle keeps the first entry per (url, date, title prefix)
func uniqueURLDateTitle(entries []model.Entry) []model.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		key := e.URL + "|" + e.Date() + "|" + prefix(strings.ToLower(e.Title), 50)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
