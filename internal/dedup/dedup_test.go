package dedup

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

func entry(title, date, desc string) model.Entry {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return model.Entry{Title: title, Start: d.Add(19 * time.Hour), Description: desc}
}

func TestMerge_EventAnnualFestival(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("2026 Annual Spring Festival", "2026-03-15", ""),
		entry("Spring Festival", "2026-03-15", "Live music and food trucks"),
	}

	out := d.Merge(model.CategoryEvents, in)
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].Title != "Spring Festival" || out[0].Date() != "2026-03-15" {
		t.Errorf("winner = %+v", out[0])
	}
}

func TestMerge_EventArticleBeforeYear(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("The 2026 Annual Spring Festival", "2026-03-15", "Rides and a parade"),
		entry("Spring Festival", "2026-03-15", ""),
	}

	out := d.Merge(model.CategoryEvents, in)
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].Description != "Rides and a parade" {
		t.Errorf("winner = %+v", out[0])
	}
}

func TestMerge_ClassSessionsNotMerged(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("Pottery Basics", "2026-03-01", ""),
		entry("Pottery Basics", "2026-03-08", ""),
	}

	out := d.Merge(model.CategoryClasses, in)
	if len(out) != 2 {
		t.Errorf("got %d entries, want 2 distinct sessions", len(out))
	}
}

func TestMerge_ClassKeys(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("Watercolor Week 3", "2026-03-01", "Taught by Ann Lee."),
		entry("Watercolor Week 4", "2026-03-01", "Taught by Ann Lee."),
		entry("Watercolor Week 3", "2026-03-01", "With Bob Stone"),
		entry("Watercolor: Week 3", "2026-03-01", "Taught by Ann Lee. Bring brushes."),
	}

	out := d.Merge(model.CategoryClasses, in)
	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3", len(out))
	}
	if out[0].Title != "Watercolor: Week 3" {
		t.Errorf("longer title should win on tie, got %q", out[0].Title)
	}
}

func TestMerge_MeetingsExactTitle(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("City Council Work Session", "2026-03-02", "Location: City Hall Council Chambers"),
		entry("city council  work session", "2026-03-02", "Location: City Hall Council Chambers. Agenda posted."),
		entry("City Council Regular Meeting", "2026-03-02", "Location: City Hall Council Chambers"),
		entry("City Council Work Session", "2026-03-02", "Location: Annex Room 2"),
	}

	out := d.Merge(model.CategoryMeetings, in)
	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3", len(out))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	d := New(0, zerolog.Nop())
	in := []model.Entry{
		entry("The Jazz Night", "2026-04-01", ""),
		entry("Jazz Night!", "2026-04-01", "Trio"),
		entry("10th Annual Rattlesnake Roundup", "2026-04-02", ""),
		entry("Rattlesnake Roundup", "2026-04-02", ""),
		entry("Jazz Night", "2026-04-08", ""),
	}

	for _, category := range []model.Category{model.CategoryEvents, model.CategoryClasses, model.CategoryMeetings, model.CategoryAttractions} {
		once := d.Merge(category, in)
		twice := d.Merge(category, once)
		if len(once) != len(twice) {
			t.Errorf("%s: second pass changed %d -> %d entries", category, len(once), len(twice))
			continue
		}
		for i := range once {
			if once[i].Title != twice[i].Title || !once[i].Start.Equal(twice[i].Start) {
				t.Errorf("%s: entry %d changed on second pass", category, i)
			}
		}
	}

	events := d.Merge(model.CategoryEvents, in)
	if len(events) != 3 {
		t.Errorf("events merged to %d, want 3", len(events))
	}
}

func TestMerge_AttractionsFuzzy(t *testing.T) {
	d := New(DefaultSimilarity, zerolog.Nop())
	in := []model.Entry{
		{Title: "Wild Adventures Theme Park", Categories: []string{"park"}},
		{Title: "Lowndes County Historical Museum", Description: "Local history", Categories: []string{"museum"}},
		{Title: "Wild Adventures Theme Park!", Description: "Rides and animals", Categories: []string{"zoo", "park"}},
		{Title: "Grand Bay Wildlife Management Area"},
	}

	out := d.Merge(model.CategoryAttractions, in)
	if len(out) != 3 {
		t.Fatalf("got %d attractions, want 3", len(out))
	}
	wild := out[0]
	if wild.Description != "Rides and animals" {
		t.Errorf("described entry should win, got %+v", wild)
	}
	if len(wild.Categories) != 2 || wild.Categories[0] != "park" || wild.Categories[1] != "zoo" {
		t.Errorf("categories = %v, want [park zoo]", wild.Categories)
	}
}

func TestEventTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026 Annual Spring Festival", "spring festival"},
		{"5th Annual Chili Cook-Off", "chili cook off"},
		{"The Nutcracker", "nutcracker"},
		{"A Night   at the Museum", "night at the museum"},
		{"Annual Gala!", "gala"},
		{"The 2026 Annual Spring Festival", "spring festival"},
		{"2026 The 3rd Annual Fish Fry", "fish fry"},
	}
	for _, tt := range tests {
		if got := EventTitle(tt.in); got != tt.want {
			t.Errorf("EventTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstructorAndLocation(t *testing.T) {
	if got := Instructor(model.Entry{Title: "Intro to Clay", Description: "A beginner class with Maria Gomez."}); got != "maria gomez" {
		t.Errorf("Instructor = %q", got)
	}
	if got := Instructor(model.Entry{Title: "Yoga", Description: "Instructor: Sam Park"}); got != "sam park" {
		t.Errorf("Instructor = %q", got)
	}
	if got := Instructor(model.Entry{Title: "Open Studio"}); got != "" {
		t.Errorf("Instructor = %q, want empty", got)
	}
	if got := Location(model.Entry{Description: "Location: City Hall, 216 E Central Ave. Public welcome."}); got != "city hall, 216 e central ave" {
		t.Errorf("Location = %q", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "abcd", 1},
		{"", "", 1},
		{"abcd", "", 0},
		{"abcd", "bcde", 0.75},
		{"wild adventures", "wild adventure", 28.0 / 29.0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity_Runes(t *testing.T) {
	if got := Similarity("café del mar", "cafe del mar"); math.Abs(got-22.0/24.0) > 1e-9 {
		t.Errorf("Similarity = %v, want %v", got, 22.0/24.0)
	}
	if Similarity("lowndes county museum", "lowndes county historical museum") >= DefaultSimilarity {
		t.Error("distinct places must stay below the merge threshold")
	}
}
