package adapters

import (
	"context"
	"testing"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

func mustPage(t *testing.T, pageURL, body string) *extract.Page {
	t.Helper()
	page, err := extract.NewPage(pageURL, body)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return page
}

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://visitvaldosta.org/events/", "split_date_cards"},
		{"https://www.visitvaldosta.org/events/", "split_date_cards"},
		{"https://wanderlog.com/list/geoCategory/123/top-things-to-do-in-valdosta", "place_views"},
		{"https://exploregeorgia.org/article/guide-to-valdosta", "article_headings"},
		{"https://notvisitvaldosta.org/events/", ""},
		{"https://valdostacity.com/events", ""},
		{"::bad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := ""
			if a := r.FindAdapter(tt.url); a != nil {
				got = a.Name()
			}
			if got != tt.want {
				t.Errorf("FindAdapter(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

const splitDateHTML = `<html><body>
<article class="type-event">
  <a href="/event/jazz-on-the-lawn/"><h3>Jazz on the Lawn</h3></a>
  <div class="date"><span>14</span></div>
  <div class="txt"><span>Mar</span></div>
  <p>Bring a blanket. Music starts at 6 PM.</p>
</article>
<article class="type-event">
  <h3>Undated Teaser</h3>
  <div class="txt"><span>Apr</span></div>
</article>
<article class="post"><h3>Blog Post</h3><div class="date"><span>1</span></div><div class="txt"><span>May</span></div></article>
</body></html>`

func TestSplitDateAdapter_Candidates(t *testing.T) {
	a := NewSplitDateAdapter("visitvaldosta.org")
	page := mustPage(t, "https://visitvaldosta.org/events/", splitDateHTML)

	cands := a.Candidates(context.Background(), page, model.CategoryEvents)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(cands), cands)
	}

	c := cands[0]
	if c.Title != "Jazz on the Lawn" || c.DateHint != "Mar 14" || c.URL != "/event/jazz-on-the-lawn/" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Description != "Bring a blanket. Music starts at 6 PM." {
		t.Errorf("description = %q", c.Description)
	}
}

const placeViewHTML = `<html><body>
<div class="PlaceView__selectable">
  <h2><a href="/place/wild-adventures">Wild Adventures Theme Park</a> <span>1</span></h2>
  <div class="mt-2">Rides, shows and a zoo.</div>
</div>
<div class="PlaceView__selectable">
  <h2>Lowndes County Museum</h2>
</div>
<div class="PlaceView__selectable"><p>No heading</p></div>
</body></html>`

func TestPlaceViewAdapter_Candidates(t *testing.T) {
	a := NewPlaceViewAdapter("wanderlog.com")
	page := mustPage(t, "https://wanderlog.com/list/valdosta", placeViewHTML)

	cands := a.Candidates(context.Background(), page, model.CategoryAttractions)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Title != "Wild Adventures Theme Park" || cands[0].URL != "/place/wild-adventures" || cands[0].Description != "Rides, shows and a zoo." {
		t.Errorf("unexpected first candidate: %+v", cands[0])
	}
	if cands[1].Title != "Lowndes County Museum" || cands[1].URL != "" {
		t.Errorf("unexpected second candidate: %+v", cands[1])
	}
}

func TestHeadingAdapter_Candidates(t *testing.T) {
	html := `<html><body><article>
<h2>Things to Do</h2>
<h3>Grand Bay Wildlife Management Area</h3><p>Boardwalk and <a href="/grand-bay">observation tower</a>.</p>
<h3><a href="https://wildadventures.com">Wild Adventures</a></h3><div>Theme park.</div>
<h4>Go</h4>
</article></body></html>`

	a := NewHeadingAdapter("exploregeorgia.org")
	cands := a.Candidates(context.Background(), mustPage(t, "https://exploregeorgia.org/article/guide", html), model.CategoryAttractions)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}
	if cands[0].URL != "/grand-bay" || cands[0].Description != "Boardwalk and observation tower." {
		t.Errorf("unexpected first candidate: %+v", cands[0])
	}
	if cands[1].URL != "https://wildadventures.com" || cands[1].Description != "Theme park." {
		t.Errorf("unexpected second candidate: %+v", cands[1])
	}
}
