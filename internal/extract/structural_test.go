package extract

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

const calendarHTML = `<html><body>
<div class="cal-wrap">
<table>
<tr>
  <td data-date="2026-02-20"><a href="/event/jazz">Jazz Night</a> 7:30 PM</td>
  <td data-date="2026-02-03"><a href="/event/old">Old Event</a></td>
  <td data-date="2026-02-21"><a href="/x">Go</a></td>
  <td><a href="/nodate">No Date Cell</a></td>
</tr>
</table>
</div>
</body></html>`

const marchHTML = `<html><body><table><tr>
  <td data-date="2026-03-05"><a href="/event/concert">Spring Concert</a></td>
  <td data-date="2026-02-20"><a href="/event/jazz">Jazz Night</a> 7:30 PM</td>
</tr></table></body></html>`

func TestStructural_CalendarTableWithMonthPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://city.example/calendar?month=2026-03": marchHTML,
	}}
	s := NewStructural(newTestFinalizer(), fetcher, zerolog.Nop())
	src := model.Source{ID: "city", URL: "https://city.example/calendar", Category: model.CategoryEvents}

	entries, err := s.Extract(context.Background(), mustPage(t, src.URL, calendarHTML), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries %v, want 2", len(entries), titles(entries))
	}

	jazz, ok := findEntry(entries, "Jazz Night")
	if !ok {
		t.Fatal("missing Jazz Night")
	}
	if jazz.StartString() != "2026-02-20T19:30:00" {
		t.Errorf("jazz start = %s", jazz.StartString())
	}
	if jazz.URL != "https://city.example/event/jazz" {
		t.Errorf("jazz url = %s", jazz.URL)
	}

	concert, ok := findEntry(entries, "Spring Concert")
	if !ok {
		t.Fatal("missing Spring Concert from month page")
	}
	if h := concert.Start.Hour(); h < 18 || h > 21 {
		t.Errorf("concert hour %d outside evening window", h)
	}

	if _, ok := findEntry(entries, "Old Event"); ok {
		t.Error("past event must be dropped")
	}
	if len(fetcher.called) != 6 {
		t.Errorf("expected 6 month page fetches, got %d", len(fetcher.called))
	}
}

const containersHTML = `<html><body><main>
<div class="event-card">
  <h3>Farmers Market</h3>
  <span class="event-date">March 7, 2026</span>
  <p>Fresh produce downtown.</p>
  <a href="/event/market">More</a>
</div>
<div class="event-card"><h3>Read More</h3><span class="date">March 8</span></div>
<div class="event-card"><h3>Mystery Gathering</h3><p>No date here</p></div>
<article class="post"><h2>Farmers Market</h2><span class="date">March 7</span></article>
<li class="listing-item"><a href="/event/quilts">Quilt Show</a><time datetime="2026-04-18T10:00">Apr 18</time></li>
</main></body></html>`

func TestStructural_Containers(t *testing.T) {
	s := NewStructural(newTestFinalizer(), nil, zerolog.Nop())
	src := model.Source{ID: "vv", URL: "https://visit.example/events/", Category: model.CategoryEvents}

	entries, err := s.Extract(context.Background(), mustPage(t, src.URL, containersHTML), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %v, want Farmers Market and Quilt Show", titles(entries))
	}

	market, _ := findEntry(entries, "Farmers Market")
	if market.Date() != "2026-03-07" {
		t.Errorf("market date = %s", market.Date())
	}
	if h := market.Start.Hour(); h < 10 || h > 16 {
		t.Errorf("market hour %d outside festival window", h)
	}
	if market.URL != "https://visit.example/event/market" || market.Description != "Fresh produce downtown." {
		t.Errorf("unexpected market entry: %+v", market)
	}

	quilts, ok := findEntry(entries, "Quilt Show")
	if !ok || quilts.Date() != "2026-04-18" {
		t.Errorf("quilt show missing or misdated: %+v", quilts)
	}
}

func TestStructural_RecurringSeedExpands(t *testing.T) {
	html := `<html><body>
<div class="event-item"><h3>First Friday Art Walk</h3><span class="date">January 2, 2026</span><p>Galleries open late, 6pm.</p></div>
</body></html>`

	s := NewStructural(newTestFinalizer(), nil, zerolog.Nop())
	src := model.Source{ID: "dt", URL: "https://downtown.example/", Category: model.CategoryEvents}

	entries, _ := s.Extract(context.Background(), mustPage(t, src.URL, html), src)
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6 monthly occurrences", len(entries))
	}
	if entries[0].StartString() != "2026-02-06T18:00:00" {
		t.Errorf("first occurrence = %s", entries[0].StartString())
	}
	for _, e := range entries {
		if e.Date() < "2026-02-06" {
			t.Errorf("occurrence %s is in the past", e.Date())
		}
	}
}

const attractionsHTML = `<html><body><main>
<h2>Things to Do</h2>
<h3>Wild Adventures Theme Park</h3><p>Rides and animals. <a href="/attraction/wild">Visit</a></p>
<h3>Lowndes County Historical Museum</h3><p>Local history exhibits.</p>
<h3>Top 10 Beaches</h3><p>See <a href="/article/beaches">the list</a></p>
<div class="place-card"><h4>Grand Bay Wildlife Park</h4><p>Boardwalk and trails.</p></div>
</main></body></html>`

func TestStructural_AttractionHeadingFallback(t *testing.T) {
	s := NewStructural(newTestFinalizer(), nil, zerolog.Nop())
	src := model.Source{ID: "eg", URL: "https://explore.example/guide", Category: model.CategoryAttractions}

	entries, _ := s.Extract(context.Background(), mustPage(t, src.URL, attractionsHTML), src)
	want := []string{"Grand Bay Wildlife Park", "Wild Adventures Theme Park", "Lowndes County Historical Museum"}
	got := titles(entries)
	if len(got) != len(want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for _, e := range entries {
		if e.Date() != "2026-02-06" {
			t.Errorf("%s dated %s, want run date", e.Title, e.Date())
		}
	}

	wild, _ := findEntry(entries, "Wild Adventures Theme Park")
	if wild.URL != "https://explore.example/attraction/wild" {
		t.Errorf("wild url = %s", wild.URL)
	}
	museum, _ := findEntry(entries, "Lowndes County Historical Museum")
	if h := museum.Start.Hour(); h < 10 || h > 16 {
		t.Errorf("museum hour %d outside museum window", h)
	}
}
