package extract

import (
	"net/url"
	"testing"
	"time"
)

func TestResolveURL(t *testing.T) {
	page := "https://valdostacity.com/events/calendar"
	tests := []struct {
		href string
		want string
	}{
		{"/event/spring-festival", "https://valdostacity.com/event/spring-festival"},
		{"details?id=4", "https://valdostacity.com/events/details?id=4"},
		{"https://other.org/x", "https://other.org/x"},
		{"", page},
		{"#top", page},
		{"javascript:void(0)", page},
		{"mailto:info@example.com", page},
	}

	for _, tt := range tests {
		if got := ResolveURL(page, tt.href); got != tt.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestResolveURL_BaseHelper(t *testing.T) {
	base, _ := url.Parse("https://example.com/a/b")
	if got := resolveURL(base, "ftp://example.com/file"); got != "" {
		t.Errorf("non-http scheme should be skipped, got %q", got)
	}
}

func TestHasDetailURL(t *testing.T) {
	listing := "https://visitvaldosta.org/events/"
	tests := []struct {
		name string
		item string
		want bool
	}{
		{"detail page", "https://visitvaldosta.org/event/jazz-night/", true},
		{"external site", "https://www.eventbrite.com/e/123", true},
		{"same page", "https://visitvaldosta.org/events", false},
		{"same page with fragment", "https://visitvaldosta.org/events/#jazz", false},
		{"category archive", "https://visitvaldosta.org/events/category/music/", false},
		{"tag archive", "https://visitvaldosta.org/tag/family", false},
		{"paged listing", "https://visitvaldosta.org/events/page/2/", false},
		{"month view", "https://visitvaldosta.org/calendar?month=2026-03", false},
		{"empty", "", false},
		{"mailto", "mailto:x@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasDetailURL(listing, tt.item); got != tt.want {
				t.Errorf("HasDetailURL(%q) = %v, want %v", tt.item, got, tt.want)
			}
		})
	}
}

func TestMonthURLs(t *testing.T) {
	today := time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC)
	got := MonthURLs("https://example.com/calendar?view=grid", today, 3)
	want := []string{
		"https://example.com/calendar?month=2026-12",
		"https://example.com/calendar?month=2027-01",
		"https://example.com/calendar?month=2027-02",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d urls, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
