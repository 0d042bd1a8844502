package extract

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/datetime"
	"github.com/ppiankov/calscrape/internal/model"
	"github.com/ppiankov/calscrape/internal/recur"
)

// Options tunes post-processing shared by all strategies
type Options struct {
	DescriptionLimit int
	ClassGraceDays   int
	HorizonMonths    int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		DescriptionLimit: 200,
		ClassGraceDays:   30,
		HorizonMonths:    recur.DefaultHorizonMonths,
	}
}

// OptionsFromConfig maps extraction config onto Options
func OptionsFromConfig(cfg model.ExtractionConfig) Options {
	opts := DefaultOptions()
	if cfg.DescriptionLimit > 0 {
		opts.DescriptionLimit = cfg.DescriptionLimit
	}
	if cfg.ClassGraceDays > 0 {
		opts.ClassGraceDays = cfg.ClassGraceDays
	}
	if cfg.HorizonMonths > 0 {
		opts.HorizonMonths = cfg.HorizonMonths
	}
	return opts
}

// Finalizer turns candidates into calendar entries: title cleanup, junk
// filtering, date/time normalization, the past-date rule, description
// truncation, URL resolution and same-page dedup.
type Finalizer struct {
	norm     *datetime.Normalizer
	expander *recur.Expander
	opts     Options
	logger   zerolog.Logger
}

// NewFinalizer creates a finalizer. A nil clock uses time.Now.
func NewFinalizer(now func() time.Time, opts Options, logger zerolog.Logger) *Finalizer {
	return &Finalizer{
		norm:     datetime.NewNormalizer(now),
		expander: recur.NewExpander(now, opts.HorizonMonths),
		opts:     opts,
		logger:   logger,
	}
}

// Normalizer exposes the date/time normalizer
func (f *Finalizer) Normalizer() *datetime.Normalizer {
	return f.norm
}

// Today returns the run date
func (f *Finalizer) Today() time.Time {
	return f.norm.Today()
}

// Options returns the post-processing options
func (f *Finalizer) Options() Options {
	return f.opts
}

// Finalize converts candidates from one page into entries. Expansion of
// recurring entries is left to Expand.
func (f *Finalizer) Finalize(cands []model.Candidate, category model.Category, pageURL, source string) []model.Entry {
	entries := make([]model.Entry, 0, len(cands))
	for _, c := range cands {
		e, ok := f.entry(c, category, pageURL, source)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	return f.dedupPage(entries)
}

func (f *Finalizer) entry(c model.Candidate, category model.Category, pageURL, source string) (model.Entry, bool) {
	if c.Status.Dropped() {
		f.drop(c.Title, string(c.Status))
		return model.Entry{}, false
	}

	title := CleanTitle(category, c.Title)
	if IsJunkTitle(title) {
		f.drop(c.Title, "junk_title")
		return model.Entry{}, false
	}
	c.Title = title

	e := f.Build(c, f.norm.Start(c, category), pageURL, source)
	if !f.Keep(e, category) {
		f.drop(title, "past_date")
		return model.Entry{}, false
	}
	return e, true
}

// Build creates an entry from an already cleaned candidate and its start
func (f *Finalizer) Build(c model.Candidate, start time.Time, pageURL, source string) model.Entry {
	return model.Entry{
		Title:            c.Title,
		URL:              ResolveURL(pageURL, c.URL),
		Description:      Truncate(collapseSpace(c.Description), f.opts.DescriptionLimit),
		Start:            start,
		RecurringPattern: strings.TrimSpace(c.RecurringPattern),
		Categories:       c.Categories,
		Source:           source,
	}
}

// Keep applies the past-date rule. Events and meetings must not be before
// today, classes get a grace window, attractions are always current, and
// entries with a recognized recurring pattern are kept so they can expand.
func (f *Finalizer) Keep(e model.Entry, category model.Category) bool {
	if category == model.CategoryAttractions || recur.IsRecurring(e) {
		return true
	}
	cutoff := f.Today()
	if category == model.CategoryClasses {
		cutoff = cutoff.AddDate(0, 0, -f.opts.ClassGraceDays)
	}
	return !datetime.IsPast(e.Start, cutoff)
}

// Expand replaces recurring seeds with their future occurrences
func (f *Finalizer) Expand(entries []model.Entry) []model.Entry {
	return f.expander.ExpandAll(entries)
}

// dedupPage drops entries whose date and normalized title prefix repeat
// within a single page pass
func (f *Finalizer) dedupPage(entries []model.Entry) []model.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		key := e.Date() + "|" + prefix(strings.ToLower(collapseSpace(e.Title)), 30)
		if seen[key] {
			f.drop(e.Title, "duplicate")
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func (f *Finalizer) drop(title, reason string) {
	f.logger.Debug().Str("title", title).Str("reason", reason).Msg("Dropped item")
}
