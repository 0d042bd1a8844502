package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// stubListing serves fixed Stage-1 candidates
type stubListing []model.Candidate

func (s stubListing) Candidates(ctx context.Context, page *Page, category model.Category) []model.Candidate {
	return s
}

func withPauses(t *testing.T) *[]time.Duration {
	t.Helper()
	var pauses []time.Duration
	orig := pauseFunc
	pauseFunc = func(d time.Duration) { pauses = append(pauses, d) }
	t.Cleanup(func() { pauseFunc = orig })
	return &pauses
}

const listingURL = "https://visit.example/events/"

func detailAnswers(byTitle map[string]string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		for title, answer := range byTitle {
			if strings.Contains(prompt, "ITEM TITLE FROM LISTING: "+title+"\n") {
				return answer, nil
			}
		}
		return "", errors.New("unexpected prompt")
	}
}

func TestTwoStage_Extract(t *testing.T) {
	pauses := withPauses(t)

	listing := stubListing{
		{Title: "Jazz Night", URL: "/event/jazz", DateHint: "2026-02-20", TimeHint: "19:30"},
		{Title: "Gala", URL: "/event/gala", DateHint: "2026-03-01"},
		{Title: "Comedy Show", URL: "/event/comedy", DateHint: "2026-03-02"},
		{Title: "Story Time", URL: "", DateHint: "2026-02-10", TimeHint: "10:30"},
		{Title: "Mystery Tour", URL: "/event/mystery"},
		{Title: "Jazz Night", URL: "/event/jazz", DateHint: "2026-02-20"},
	}

	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://visit.example/event/gala":   `<html><body><article><h1>Valdosta Symphony Spring Gala</h1><p>April 10 and 11, 7 PM.</p></article></body></html>`,
			"https://visit.example/event/comedy": `<html><body><p>This show has been cancelled.</p></body></html>`,
		},
		errs: map[string]error{
			"https://visit.example/event/jazz": context.DeadlineExceeded,
		},
	}
	completer := &fakeCompleter{answer: detailAnswers(map[string]string{
		"Gala":        `{"status": "active", "dates": ["2026-04-10", "2026-04-11"], "time": "7:00 PM", "description": "Spring concert.", "corrected_title": "Valdosta Symphony Spring Gala"}`,
		"Comedy Show": `{"status": "cancelled", "dates": ["2026-03-02"]}`,
	})}

	ts := NewTwoStage(TwoStageConfig{
		Finalizer:   newTestFinalizer(),
		Completer:   completer,
		Fetcher:     fetcher,
		Listing:     listing,
		DetailDelay: 250 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	src := model.Source{ID: "vv", URL: listingURL, Category: model.CategoryEvents, Strategy: model.StrategyLLMTwoStage}

	entries, err := ts.Extract(context.Background(), mustPage(t, listingURL, "<html><body></body></html>"), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	t.Run("detail timeout falls back to listing date", func(t *testing.T) {
		jazz, ok := findEntry(entries, "Jazz Night")
		if !ok {
			t.Fatal("Jazz Night dropped after detail timeout")
		}
		if jazz.StartString() != "2026-02-20T19:30:00" {
			t.Errorf("jazz start = %s", jazz.StartString())
		}
	})

	t.Run("corrected title and multiple dates", func(t *testing.T) {
		var gala []model.Entry
		for _, e := range entries {
			if e.Title == "Valdosta Symphony Spring Gala" {
				gala = append(gala, e)
			}
		}
		if len(gala) != 2 {
			t.Fatalf("got %d gala entries, want 2: %v", len(gala), titles(entries))
		}
		if gala[0].StartString() != "2026-04-10T19:00:00" || gala[1].StartString() != "2026-04-11T19:00:00" {
			t.Errorf("gala starts = %s, %s", gala[0].StartString(), gala[1].StartString())
		}
		if gala[0].Description != "Spring concert." || gala[0].Source != "vv" {
			t.Errorf("unexpected gala entry: %+v", gala[0])
		}
		if _, ok := findEntry(entries, "Gala"); ok {
			t.Error("listing title should be replaced by corrected title")
		}
	})

	t.Run("cancelled dropped", func(t *testing.T) {
		if _, ok := findEntry(entries, "Comedy Show"); ok {
			t.Error("cancelled item must be dropped")
		}
	})

	t.Run("no detail url emitted directly", func(t *testing.T) {
		story, ok := findEntry(entries, "Story Time")
		if !ok || story.StartString() != "2026-02-10T10:30:00" {
			t.Errorf("story time missing or wrong: %+v", story)
		}
	})

	t.Run("undated detail failure dropped", func(t *testing.T) {
		if _, ok := findEntry(entries, "Mystery Tour"); ok {
			t.Error("undated item with failed detail must be dropped")
		}
	})

	t.Run("stage one dedup", func(t *testing.T) {
		count := 0
		for _, e := range entries {
			if e.Title == "Jazz Night" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("Jazz Night appears %d times, want 1", count)
		}
	})

	t.Run("pauses between detail fetches", func(t *testing.T) {
		// jazz, gala, comedy and mystery hit detail pages
		if len(*pauses) != 3 {
			t.Fatalf("pauses = %d, want 3", len(*pauses))
		}
		for _, d := range *pauses {
			if d != 250*time.Millisecond {
				t.Errorf("pause = %v, want 250ms", d)
			}
		}
	})

	if len(entries) != 4 {
		t.Errorf("got %d entries %v, want 4", len(entries), titles(entries))
	}
}

func TestTwoStage_EmptyDetailDatesUseListingDate(t *testing.T) {
	withPauses(t)

	listing := stubListing{{Title: "Pottery Basics", URL: "/class/pottery", DateHint: "2026-03-03", TimeHint: "6 PM"}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://visit.example/class/pottery": `<html><body><p>Learn the wheel.</p></body></html>`,
	}}
	completer := &fakeCompleter{answer: detailAnswers(map[string]string{
		"Pottery Basics": `{"status": "active", "dates": [], "time": "", "description": "Learn the wheel with Ann Lee."}`,
	})}

	ts := NewTwoStage(TwoStageConfig{
		Finalizer: newTestFinalizer(),
		Completer: completer,
		Fetcher:   fetcher,
		Listing:   listing,
		Logger:    zerolog.Nop(),
	})
	src := model.Source{ID: "arts", URL: listingURL, Category: model.CategoryClasses}

	entries, err := ts.Extract(context.Background(), mustPage(t, listingURL, "<html></html>"), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].StartString() != "2026-03-03T18:00:00" {
		t.Errorf("start = %s", entries[0].StartString())
	}
	if entries[0].Description != "Learn the wheel with Ann Lee." {
		t.Errorf("description = %q", entries[0].Description)
	}
	if len(completer.prompts) != 1 || !strings.Contains(completer.prompts[0], "DATE SHOWN ON LISTING: 2026-03-03") {
		t.Errorf("detail prompt missing listing date")
	}
}

func TestTwoStage_UnparseableDetailDatesUseListingDate(t *testing.T) {
	withPauses(t)

	listing := stubListing{{Title: "Chili Cook-Off", URL: "/event/chili", DateHint: "2026-03-05"}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://visit.example/event/chili": `<html><body><p>Date to be announced.</p></body></html>`,
	}}
	completer := &fakeCompleter{answer: detailAnswers(map[string]string{
		"Chili Cook-Off": `{"status": "active", "dates": ["TBA"], "time": "5 PM"}`,
	})}

	ts := NewTwoStage(TwoStageConfig{
		Finalizer: newTestFinalizer(),
		Completer: completer,
		Fetcher:   fetcher,
		Listing:   listing,
		Logger:    zerolog.Nop(),
	})
	src := model.Source{ID: "chamber", URL: listingURL, Category: model.CategoryEvents}

	entries, err := ts.Extract(context.Background(), mustPage(t, listingURL, "<html></html>"), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want the listing date to survive", len(entries))
	}
	if entries[0].StartString() != "2026-03-05T17:00:00" {
		t.Errorf("start = %s", entries[0].StartString())
	}
}

func TestTwoStage_RecurringDetailExpands(t *testing.T) {
	withPauses(t)

	listing := stubListing{{Title: "Art Walk", URL: "/event/artwalk", DateHint: "2026-01-02"}}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://visit.example/event/artwalk": `<html><body><p>Every first Friday.</p></body></html>`,
	}}
	completer := &fakeCompleter{answer: detailAnswers(map[string]string{
		"Art Walk": `{"status": "active", "dates": ["2026-01-02"], "time": "17:00", "recurring_pattern": "First Friday"}`,
	})}

	ts := NewTwoStage(TwoStageConfig{
		Finalizer: newTestFinalizer(),
		Completer: completer,
		Fetcher:   fetcher,
		Listing:   listing,
		Logger:    zerolog.Nop(),
	})
	src := model.Source{ID: "dt", URL: listingURL, Category: model.CategoryEvents}

	entries, _ := ts.Extract(context.Background(), mustPage(t, listingURL, "<html></html>"), src)
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}
	if entries[0].StartString() != "2026-02-06T17:00:00" {
		t.Errorf("first occurrence = %s", entries[0].StartString())
	}
}

func TestTwoStage_RequiresListing(t *testing.T) {
	ts := NewTwoStage(TwoStageConfig{Finalizer: newTestFinalizer(), Logger: zerolog.Nop()})
	if _, err := ts.Extract(context.Background(), mustPage(t, listingURL, "<html></html>"), model.Source{URL: listingURL}); err == nil {
		t.Error("expected error without listing extractor")
	}
}
