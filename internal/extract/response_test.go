package extract

import (
	"testing"

	"github.com/ppiankov/calscrape/internal/model"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[]\n```", "[]"},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  []  ", "[]"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseListing(t *testing.T) {
	raw := "```json\n" + `[
  {"title": "Jazz Night", "date": "2026-03-06", "time": "19:30", "description": "Live jazz", "url": "/event/jazz", "recurring_pattern": "first friday", "status": "active"},
  {"title": "Bird Walk", "date": "March 14", "time": null, "url": "/event/birds", "categories": ["outdoor", "nature"]}
]` + "\n```"

	items, err := ParseListing(raw)
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Title != "Jazz Night" || items[0].RecurringPattern != "first friday" || items[0].Time != "19:30" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Time != "" || len(items[1].Categories) != 2 {
		t.Errorf("unexpected second item: %+v", items[1])
	}

	c := items[0].Candidate()
	if c.DateHint != "2026-03-06" || c.TimeHint != "19:30" || c.Status != model.StatusActive {
		t.Errorf("unexpected candidate: %+v", c)
	}
}

func TestParseListing_WrappedArray(t *testing.T) {
	items, err := ParseListing(`{"events": [{"title": "Parade", "date": "2026-12-05"}]}`)
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Parade" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestParseListing_Malformed(t *testing.T) {
	for _, raw := range []string{"", "I could not find any events on this page.", "[{\"title\": "} {
		if _, err := ParseListing(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestParseDetail(t *testing.T) {
	raw := "Here is the result:\n```json\n" + `{"status": "Canceled", "dates": ["2026-04-10", "2026-04-11"], "time": "7:00 PM", "description": "Two nights", "recurring_pattern": "", "corrected_title": "Valdosta Symphony: Spring Gala"}` + "\n```"

	res, err := ParseDetail(raw)
	if err != nil {
		t.Fatalf("ParseDetail: %v", err)
	}
	if res.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", res.Status)
	}
	if len(res.Dates) != 2 || res.CorrectedTitle != "Valdosta Symphony: Spring Gala" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestParseDetail_SingleDateAndMalformed(t *testing.T) {
	res, err := ParseDetail(`{"status": "active", "date": "2026-05-02"}`)
	if err != nil {
		t.Fatalf("ParseDetail: %v", err)
	}
	if len(res.Dates) != 1 || res.Dates[0] != "2026-05-02" {
		t.Errorf("dates = %v", res.Dates)
	}

	if _, err := ParseDetail("no json here"); err == nil {
		t.Error("expected error for missing object")
	}
	if _, err := ParseDetail(`{"status": }`); err == nil {
		t.Error("expected error for malformed object")
	}
}
