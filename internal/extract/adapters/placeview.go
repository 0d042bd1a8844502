package adapters

import (
	"context"

	"golang.org/x/net/html"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

// PlaceViewAdapter reads trip-planner place lists: one
// div.PlaceView__selectable per place, name in the h2 link, blurb in div.mt-2
type PlaceViewAdapter struct {
	BaseAdapter
}

// NewPlaceViewAdapter creates an adapter for the given hosts
func NewPlaceViewAdapter(hosts ...string) *PlaceViewAdapter {
	return &PlaceViewAdapter{BaseAdapter: BaseAdapter{hosts: hosts}}
}

// Name returns the adapter name
func (a *PlaceViewAdapter) Name() string {
	return "place_views"
}

// CanHandle checks the page host
func (a *PlaceViewAdapter) CanHandle(rawURL string) bool {
	return a.MatchesHost(rawURL)
}

// Candidates extracts one candidate per place card
func (a *PlaceViewAdapter) Candidates(ctx context.Context, page *extract.Page, category model.Category) []model.Candidate {
	cards := a.FindAll(a.Root(page), func(n *html.Node) bool {
		return a.IsElement(n, "div") && a.HasClass(n, "PlaceView__selectable")
	})

	cands := make([]model.Candidate, 0, len(cards))
	for _, card := range cards {
		heading := a.FindFirst(card, func(n *html.Node) bool {
			return a.IsElement(n, "h2")
		})
		if heading == nil {
			continue
		}

		title := a.ExtractText(heading)
		href := a.FirstLink(heading)
		if href != "" {
			if link := a.FindFirst(heading, func(n *html.Node) bool { return a.IsElement(n, "a") }); link != nil {
				title = a.ExtractText(link)
			}
		}

		desc := a.FindFirst(card, func(n *html.Node) bool {
			return a.IsElement(n, "div") && a.HasClass(n, "mt-2")
		})

		cands = append(cands, model.Candidate{
			Title:       title,
			URL:         href,
			Description: a.ExtractText(desc),
			Context:     a.ExtractText(card),
		})
	}
	return cands
}
