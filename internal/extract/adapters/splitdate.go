package adapters

import (
	"context"
	"regexp"

	"golang.org/x/net/html"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

var eventArticleClass = regexp.MustCompile(`(?i)event`)

// SplitDateAdapter reads event cards that print the day and the month in
// separate elements: <div class="date"><span>14</span></div> and
// <div class="txt"><span>Mar</span></div>
type SplitDateAdapter struct {
	BaseAdapter
}

// NewSplitDateAdapter creates an adapter for the given hosts
func NewSplitDateAdapter(hosts ...string) *SplitDateAdapter {
	return &SplitDateAdapter{BaseAdapter: BaseAdapter{hosts: hosts}}
}

// Name returns the adapter name
func (a *SplitDateAdapter) Name() string {
	return "split_date_cards"
}

// CanHandle checks the page host
func (a *SplitDateAdapter) CanHandle(rawURL string) bool {
	return a.MatchesHost(rawURL)
}

// Candidates extracts one candidate per dated event article. Cards without
// both date parts are skipped.
func (a *SplitDateAdapter) Candidates(ctx context.Context, page *extract.Page, category model.Category) []model.Candidate {
	articles := a.FindAll(a.Root(page), func(n *html.Node) bool {
		return a.IsElement(n, "article") && a.ClassMatches(n, eventArticleClass)
	})

	cands := make([]model.Candidate, 0, len(articles))
	for _, article := range articles {
		heading := a.FindFirst(article, func(n *html.Node) bool {
			return a.IsElement(n, "h2", "h3", "h4")
		})
		if heading == nil {
			continue
		}

		day := a.spanIn(article, "date")
		month := a.spanIn(article, "txt")
		if day == "" || month == "" {
			continue
		}

		desc := a.FindFirst(article, func(n *html.Node) bool {
			return a.IsElement(n, "p")
		})

		cands = append(cands, model.Candidate{
			Title:       a.ExtractText(heading),
			URL:         a.FirstLink(article),
			Description: a.ExtractText(desc),
			DateHint:    month + " " + day,
			Context:     a.ExtractText(article),
		})
	}
	return cands
}

// spanIn returns the text of the first span inside the first div with class
func (a *SplitDateAdapter) spanIn(n *html.Node, class string) string {
	div := a.FindFirst(n, func(node *html.Node) bool {
		return a.IsElement(node, "div") && a.HasClass(node, class)
	})
	if div == nil {
		return ""
	}
	span := a.FindFirst(div, func(node *html.Node) bool {
		return a.IsElement(node, "span")
	})
	return a.ExtractText(span)
}
