package adapters

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

// sectionHeadings are guide section titles, not places
var sectionHeadings = map[string]bool{
	"things to do": true,
	"attractions":  true,
	"events":       true,
}

// HeadingAdapter reads travel guide articles where each place is a heading
// followed by a paragraph
type HeadingAdapter struct {
	BaseAdapter
}

// NewHeadingAdapter creates an adapter for the given hosts
func NewHeadingAdapter(hosts ...string) *HeadingAdapter {
	return &HeadingAdapter{BaseAdapter: BaseAdapter{hosts: hosts}}
}

// Name returns the adapter name
func (a *HeadingAdapter) Name() string {
	return "article_headings"
}

// CanHandle checks the page host
func (a *HeadingAdapter) CanHandle(rawURL string) bool {
	return a.MatchesHost(rawURL)
}

// Candidates pairs every h2/h3/h4 with its next p or div sibling
func (a *HeadingAdapter) Candidates(ctx context.Context, page *extract.Page, category model.Category) []model.Candidate {
	if page == nil || page.Doc == nil {
		return nil
	}

	var cands []model.Candidate
	page.Doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		title := strings.Join(strings.Fields(h.Text()), " ")
		if len(title) < 3 || sectionHeadings[strings.ToLower(title)] {
			return
		}

		next := h.NextAllFiltered("p, div").First()
		href, ok := h.Find("a[href]").First().Attr("href")
		if !ok {
			href, _ = next.Find("a[href]").First().Attr("href")
		}
		desc := strings.Join(strings.Fields(next.Text()), " ")

		cands = append(cands, model.Candidate{
			Title:       title,
			URL:         href,
			Description: desc,
			Context:     title + " " + desc,
		})
	})
	return cands
}
