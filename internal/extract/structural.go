package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

var (
	containerClass = regexp.MustCompile(`(?i)event|attraction|place|card|item|entry|post|listing`)
	dateClass      = regexp.MustCompile(`(?i)date|time`)
	monthWord      = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	dayNumber      = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// attractionHeadingThreshold is the container count below which attraction
// pages are also scanned heading by heading
const attractionHeadingThreshold = 20

// genericHeadings are section headers on attraction guides, not places
var genericHeadings = map[string]bool{
	"things to do": true,
	"attractions":  true,
	"events":       true,
	"overview":     true,
	"about":        true,
	"places":       true,
	"restaurants":  true,
}

// Structural extracts entries from page markup without the extraction
// service: calendar tables first, then topical containers, then (for
// attractions) bare headings.
type Structural struct {
	fin     *Finalizer
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewStructural creates a structural extractor. fetcher may be nil, in which
// case month pagination is skipped.
func NewStructural(fin *Finalizer, fetcher PageFetcher, logger zerolog.Logger) *Structural {
	return &Structural{fin: fin, fetcher: fetcher, logger: logger}
}

// Name returns the strategy name
func (s *Structural) Name() string {
	return string(model.StrategyStructural)
}

// Extract implements Strategy
func (s *Structural) Extract(ctx context.Context, page *Page, src model.Source) ([]model.Entry, error) {
	return finish(s.fin, s.Candidates(ctx, page, src.Category), page, src), nil
}

// Candidates returns raw items with absolute URLs. For events and meetings a
// calendar table wins and is followed through month pagination.
func (s *Structural) Candidates(ctx context.Context, page *Page, category model.Category) []model.Candidate {
	if (category == model.CategoryEvents || category == model.CategoryMeetings) && hasTable(page.Doc) {
		if cands := s.calendarCandidates(ctx, page); len(cands) > 0 {
			return cands
		}
	}

	cands := s.containerCandidates(page, category)
	if category == model.CategoryAttractions && len(cands) < attractionHeadingThreshold {
		cands = append(cands, headingCandidates(page, cands)...)
	}
	return uniqueCandidateTitles(category, cands)
}

// calendarCandidates reads the table on the listing page and on each
// month-paginated variant, keeping one candidate per (title, date)
func (s *Structural) calendarCandidates(ctx context.Context, page *Page) []model.Candidate {
	cands := tableCandidates(page)

	if s.fetcher != nil {
		for _, monthURL := range MonthURLs(page.URL, s.fin.Today(), s.fin.Options().HorizonMonths) {
			if ctx.Err() != nil {
				break
			}
			monthPage, err := fetchPage(ctx, s.fetcher, monthURL)
			if err != nil {
				s.logger.Warn().Err(err).Str("url", monthURL).Msg("Month page fetch failed")
				continue
			}
			cands = append(cands, tableCandidates(monthPage)...)
		}
	}

	seen := make(map[string]bool, len(cands))
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		key := c.Title + "|" + c.DateHint
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// tableCandidates reads calendar cells carrying a data-date attribute
func tableCandidates(page *Page) []model.Candidate {
	var cands []model.Candidate

	page.Doc.Find("table td[data-date]").Each(func(_ int, cell *goquery.Selection) {
		date, _ := cell.Attr("data-date")
		cellText := selectionText(cell)

		cell.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			title := selectionText(link)
			if len(title) <= 3 {
				return
			}
			href, _ := link.Attr("href")
			cands = append(cands, model.Candidate{
				Title:    title,
				URL:      ResolveURL(page.URL, href),
				DateHint: strings.TrimSpace(date),
				Context:  cellText,
			})
		})
	})

	return cands
}

// containerCandidates reads topical containers: heading or anchor for the
// title, first link for the URL, first paragraph for the description
func (s *Structural) containerCandidates(page *Page, category model.Category) []model.Candidate {
	var cands []model.Candidate
	norm := s.fin.Normalizer()

	page.Doc.Find("article, div, li, section").Each(func(_ int, container *goquery.Selection) {
		if !hasClassMatching(container, containerClass.MatchString) {
			return
		}

		title := selectionText(container.Find("h2, h3, h4, a").First())
		if title == "" {
			return
		}

		href, _ := container.Find("a[href]").First().Attr("href")
		desc := prefix(selectionText(container.Find("p").First()), 200)
		text := selectionText(container)

		c := model.Candidate{
			Title:       title,
			URL:         ResolveURL(page.URL, href),
			Description: desc,
			Context:     text,
		}

		if category.IsDated() {
			hint := containerDate(container, text)
			if _, ok := norm.ParseDate(hint); !ok {
				s.logger.Debug().Str("title", title).Str("reason", "no_date").Msg("Dropped item")
				return
			}
			c.DateHint = hint
		}

		cands = append(cands, c)
	})

	return cands
}

// containerDate finds a date fragment: a date/time element first, then a
// month name paired with the first day-sized number in the container
func containerDate(container *goquery.Selection, text string) string {
	var hint string

	container.Find("time, span, div").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if goquery.NodeName(el) == "time" {
			if dt, ok := el.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
				hint = strings.TrimSpace(dt)
				return false
			}
		}
		if hasClassMatching(el, dateClass.MatchString) {
			hint = selectionText(el)
			return false
		}
		return true
	})

	if len(hint) >= 3 {
		return hint
	}

	month := monthWord.FindString(text)
	day := dayNumber.FindStringSubmatch(text)
	if month != "" && day != nil {
		return month + " " + day[1]
	}
	return hint
}

// headingCandidates pairs bare h2/h3/h4 headings with their next paragraph,
// skipping titles already found and links to other articles
func headingCandidates(page *Page, existing []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.Title)] = true
	}

	var cands []model.Candidate
	page.Doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		title := selectionText(h)
		lower := strings.ToLower(title)
		if len(title) < 3 || genericHeadings[lower] || seen[lower] {
			return
		}

		next := h.NextAllFiltered("p").First()
		href, ok := h.Find("a[href]").First().Attr("href")
		if !ok {
			href, _ = next.Find("a[href]").First().Attr("href")
		}
		if strings.Contains(href, "/article/") {
			return
		}

		seen[lower] = true
		desc := prefix(selectionText(next), 200)
		cands = append(cands, model.Candidate{
			Title:       title,
			URL:         ResolveURL(page.URL, href),
			Description: desc,
			Context:     title + " " + desc,
		})
	})

	return cands
}

// uniqueCandidateTitles keeps the first candidate per cleaned, lower-cased title
func uniqueCandidateTitles(category model.Category, cands []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		key := strings.ToLower(CleanTitle(category, c.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// finish post-processes candidates from one source and expands recurrences
func finish(fin *Finalizer, cands []model.Candidate, page *Page, src model.Source) []model.Entry {
	return fin.Expand(fin.Finalize(cands, src.Category, page.URL, src.ID))
}

// CandidateSource produces raw candidates for a listing page
type CandidateSource interface {
	Candidates(ctx context.Context, page *Page, category model.Category) []model.Candidate
}

// CandidateStrategy adapts a CandidateSource into a Strategy
type CandidateStrategy struct {
	name   string
	source CandidateSource
	fin    *Finalizer
}

// NewCandidateStrategy wraps source with shared post-processing
func NewCandidateStrategy(name string, source CandidateSource, fin *Finalizer) *CandidateStrategy {
	return &CandidateStrategy{name: name, source: source, fin: fin}
}

// Name returns the strategy name
func (s *CandidateStrategy) Name() string {
	return s.name
}

// Extract implements Strategy
func (s *CandidateStrategy) Extract(ctx context.Context, page *Page, src model.Source) ([]model.Entry, error) {
	return finish(s.fin, s.source.Candidates(ctx, page, src.Category), page, src), nil
}
