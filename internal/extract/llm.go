package extract

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// Budgets caps the characters sent to the extraction service
type Budgets struct {
	Excerpt    int
	Attraction int
	Detail     int
}

// DefaultBudgets returns the default excerpt sizes
func DefaultBudgets() Budgets {
	return Budgets{Excerpt: 50_000, Attraction: 100_000, Detail: 15_000}
}

// BudgetsFromConfig maps extraction config onto Budgets
func BudgetsFromConfig(cfg model.ExtractionConfig) Budgets {
	b := DefaultBudgets()
	if cfg.ExcerptChars > 0 {
		b.Excerpt = cfg.ExcerptChars
	}
	if cfg.AttractionChars > 0 {
		b.Attraction = cfg.AttractionChars
	}
	if cfg.DetailChars > 0 {
		b.Detail = cfg.DetailChars
	}
	return b
}

func (b Budgets) listing(category model.Category) int {
	if category == model.CategoryAttractions {
		return b.Attraction
	}
	return b.Excerpt
}

// LLM extracts a listing page in a single pass through the extraction service
type LLM struct {
	fin       *Finalizer
	completer Completer
	fetcher   PageFetcher
	budgets   Budgets
	logger    zerolog.Logger
}

// NewLLM creates a single-pass extractor. fetcher may be nil, in which case
// month pagination is skipped.
func NewLLM(fin *Finalizer, completer Completer, fetcher PageFetcher, budgets Budgets, logger zerolog.Logger) *LLM {
	return &LLM{
		fin:       fin,
		completer: completer,
		fetcher:   fetcher,
		budgets:   budgets,
		logger:    logger,
	}
}

// Name returns the strategy name
func (l *LLM) Name() string {
	return string(model.StrategyLLMSinglePass)
}

// Extract implements Strategy
func (l *LLM) Extract(ctx context.Context, page *Page, src model.Source) ([]model.Entry, error) {
	return finish(l.fin, l.Candidates(ctx, page, src.Category), page, src), nil
}

// Candidates extracts the listing page and, for calendar tables of events
// and meetings, the month-paginated variants
func (l *LLM) Candidates(ctx context.Context, page *Page, category model.Category) []model.Candidate {
	cands := l.pageCandidates(ctx, page, category)

	paginate := (category == model.CategoryEvents || category == model.CategoryMeetings) && hasTable(page.Doc)
	if !paginate || l.fetcher == nil {
		return cands
	}

	for _, monthURL := range MonthURLs(page.URL, l.fin.Today(), l.fin.Options().HorizonMonths) {
		if ctx.Err() != nil {
			break
		}
		monthPage, err := fetchPage(ctx, l.fetcher, monthURL)
		if err != nil {
			l.logger.Warn().Err(err).Str("url", monthURL).Msg("Month page fetch failed")
			continue
		}
		cands = append(cands, l.pageCandidates(ctx, monthPage, category)...)
	}
	return cands
}

// pageCandidates runs one page through the extraction service. Service and
// parse failures yield no candidates.
func (l *LLM) pageCandidates(ctx context.Context, page *Page, category model.Category) []model.Candidate {
	doc, err := page.Fresh()
	if err != nil {
		l.logger.Warn().Err(err).Str("url", page.URL).Msg("Page parse failed")
		return nil
	}

	excerpt := BuildExcerpt(doc, category, l.budgets.listing(category))
	l.logger.Debug().
		Str("url", page.URL).
		Str("excerpt", excerpt.Kind).
		Int("chars", len(excerpt.Text)).
		Msg("Built excerpt")

	prompt := ListingPrompt(category, excerpt.Text, l.fin.Today())
	resp, err := l.completer.Complete(ctx, category, prompt)
	if err != nil {
		l.logger.Warn().Err(err).Str("url", page.URL).Msg("Extraction service failed")
		return nil
	}

	items, err := ParseListing(resp)
	if err != nil {
		l.logger.Warn().Err(err).Str("url", page.URL).Msg("Unparseable extraction response")
		return nil
	}

	cands := make([]model.Candidate, 0, len(items))
	for _, it := range items {
		c := it.Candidate()
		c.URL = ResolveURL(page.URL, c.URL)
		cands = append(cands, c)
	}
	l.logger.Debug().Str("url", page.URL).Int("items", len(cands)).Msg("Extracted items")
	return cands
}
