package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

const eventsPage = `<html><body>
<div class="event-card"><h3>Spring Festival</h3><a href="/event/spring">Details</a></div>
</body></html>`

func TestLLM_Extract(t *testing.T) {
	completer := &fakeCompleter{answer: func(prompt string) (string, error) {
		return "```json\n" + `[
  {"title": "Spring Festival", "date": "2026-04-18", "time": "10:00", "description": "Music and food", "url": "/event/spring", "status": "active"},
  {"title": "Log In", "date": "2026-04-18", "time": "", "url": "/login"},
  {"title": "Winter Gala", "date": "2026-01-05", "time": "19:00", "url": "/event/gala"},
  {"title": "Board Retreat", "date": "2026-04-20", "status": "postponed"}
]` + "\n```", nil
	}}

	l := NewLLM(newTestFinalizer(), completer, nil, DefaultBudgets(), zerolog.Nop())
	src := model.Source{ID: "city", URL: "https://city.example/events", Category: model.CategoryEvents}

	entries, err := l.Extract(context.Background(), mustPage(t, src.URL, eventsPage), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %v, want only Spring Festival", titles(entries))
	}

	e := entries[0]
	if e.StartString() != "2026-04-18T10:00:00" {
		t.Errorf("start = %s", e.StartString())
	}
	if e.URL != "https://city.example/event/spring" {
		t.Errorf("url = %s", e.URL)
	}

	if len(completer.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(completer.prompts))
	}
	p := completer.prompts[0]
	if !strings.Contains(p, "TODAY'S DATE: 2026-02-06") || !strings.Contains(p, `href="/event/spring"`) {
		t.Errorf("prompt missing date or excerpt")
	}
}

func TestLLM_FailuresYieldNoEntries(t *testing.T) {
	tests := []struct {
		name   string
		answer func(string) (string, error)
	}{
		{"malformed response", func(string) (string, error) { return "Sorry, I can't help with that.", nil }},
		{"service error", func(string) (string, error) { return "", errors.New("rate limited") }},
		{"empty array", func(string) (string, error) { return "[]", nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLLM(newTestFinalizer(), &fakeCompleter{answer: tt.answer}, nil, DefaultBudgets(), zerolog.Nop())
			src := model.Source{ID: "x", URL: "https://x.example/", Category: model.CategoryEvents}

			entries, err := l.Extract(context.Background(), mustPage(t, src.URL, eventsPage), src)
			if err != nil {
				t.Fatalf("Extract should degrade, got error %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("got %d entries, want 0", len(entries))
			}
		})
	}
}

func TestLLM_MonthPagination(t *testing.T) {
	listing := `<html><body><table><tr><td>February calendar</td></tr></table></body></html>`
	april := `<html><body><table><tr><td>April calendar</td></tr></table></body></html>`

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://town.example/meetings?month=2026-04": april,
	}}
	completer := &fakeCompleter{answer: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "February calendar"):
			return `[{"title": "City Council Regular Meeting", "date": "2026-02-09", "time": "17:30", "description": "Location: City Hall"}]`, nil
		case strings.Contains(prompt, "April calendar"):
			return `[{"title": "Planning Commission", "date": "2026-04-13", "time": "", "description": ""}]`, nil
		}
		return "[]", nil
	}}

	l := NewLLM(newTestFinalizer(), completer, fetcher, DefaultBudgets(), zerolog.Nop())
	src := model.Source{ID: "town", URL: "https://town.example/meetings", Category: model.CategoryMeetings}

	entries, err := l.Extract(context.Background(), mustPage(t, src.URL, listing), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(fetcher.called) != 6 {
		t.Errorf("month fetches = %d, want 6", len(fetcher.called))
	}
	if len(completer.prompts) != 2 {
		t.Errorf("prompts = %d, want 2 (listing and the one month that loaded)", len(completer.prompts))
	}

	council, ok := findEntry(entries, "City Council Regular Meeting")
	if !ok || council.StartString() != "2026-02-09T17:30:00" {
		t.Errorf("council meeting missing or wrong: %+v", council)
	}
	planning, ok := findEntry(entries, "Planning Commission")
	if !ok || planning.StartString() != "2026-04-13T18:00:00" {
		t.Errorf("planning commission missing or wrong: %+v", planning)
	}
}

func TestLLM_Attractions(t *testing.T) {
	page := `<html><body>
<div class="place-card"><h3>Wild Adventures</h3><p>Theme park.</p><a href="/wild">Visit</a></div>
</body></html>`

	completer := &fakeCompleter{answer: func(prompt string) (string, error) {
		if !strings.HasPrefix(prompt, "Extract ALL attractions") {
			return "", errors.New("expected attractions prompt")
		}
		return `[{"title": "Wild Adventures", "date": "2026-02-06", "time": "", "description": "Theme park.", "url": "/wild", "categories": ["park", "zoo"]}]`, nil
	}}

	l := NewLLM(newTestFinalizer(), completer, nil, DefaultBudgets(), zerolog.Nop())
	src := model.Source{ID: "eg", URL: "https://explore.example/things", Category: model.CategoryAttractions}

	entries, _ := l.Extract(context.Background(), mustPage(t, src.URL, page), src)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Date() != "2026-02-06" || len(e.Categories) != 2 {
		t.Errorf("unexpected attraction: %+v", e)
	}
	if h := e.Start.Hour(); h < 8 || h > 18 {
		t.Errorf("park hour %d outside park window", h)
	}
}
