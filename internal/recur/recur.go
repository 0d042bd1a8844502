// Package recur expands entries that repeat on an ordinal weekday of every
// month ("first friday", "2nd saturday") into concrete future occurrences.
//
// Only the phrases listed in vocabulary are recognized. Anything else, such
// as "every monday", passes through as a single entry.
package recur

import (
	"regexp"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ppiankov/calscrape/internal/model"
)

// DefaultHorizonMonths is the number of calendar months expanded, starting
// with the current one
const DefaultHorizonMonths = 6

// Pattern is a recognized "Nth weekday of the month" rule
type Pattern struct {
	Label   string
	Nth     int
	Weekday time.Weekday
}

type phrase struct {
	re      *regexp.Regexp
	pattern Pattern
}

var vocabulary = []phrase{
	{regexp.MustCompile(`(?i)\b(first|1st)\s+friday`), Pattern{Label: "first friday", Nth: 1, Weekday: time.Friday}},
	{regexp.MustCompile(`(?i)\b(second|2nd)\s+saturday`), Pattern{Label: "second saturday", Nth: 2, Weekday: time.Saturday}},
	{regexp.MustCompile(`(?i)\b(third|3rd)\s+tuesday`), Pattern{Label: "third tuesday", Nth: 3, Weekday: time.Tuesday}},
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Detect finds a recognized pattern in text
func Detect(text string) (Pattern, bool) {
	for _, p := range vocabulary {
		if p.re.MatchString(text) {
			return p.pattern, true
		}
	}
	return Pattern{}, false
}

// DetectEntry checks the entry's recurring pattern first and its title second
func DetectEntry(e model.Entry) (Pattern, bool) {
	if p, ok := Detect(e.RecurringPattern); ok {
		return p, true
	}
	return Detect(e.Title)
}

// IsRecurring reports whether an entry carries a recognized pattern
func IsRecurring(e model.Entry) bool {
	_, ok := DetectEntry(e)
	return ok
}

// Occurrences returns the Nth weekday of each month in the horizon starting
// with today's month, at the given clock time, excluding dates before today.
func Occurrences(p Pattern, today time.Time, hour, minute, months int) ([]time.Time, error) {
	if months <= 0 {
		months = DefaultHorizonMonths
	}

	first := model.Floating(today.Year(), today.Month(), 1, hour, minute)
	until := first.AddDate(0, months, 0).Add(-time.Second)

	wd := rruleWeekdays[p.Weekday]
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Dtstart:   first,
		Until:     until,
		Byweekday: []rrule.Weekday{wd.Nth(p.Nth)},
	})
	if err != nil {
		return nil, err
	}

	todayDate := model.DateOf(today)
	var out []time.Time
	for _, t := range rule.All() {
		if model.DateOf(t).Before(todayDate) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Expander turns recurring seed entries into per-occurrence entries
type Expander struct {
	now    func() time.Time
	months int
}

// NewExpander creates an expander. A nil clock uses time.Now and a
// non-positive horizon uses DefaultHorizonMonths.
func NewExpander(now func() time.Time, months int) *Expander {
	if now == nil {
		now = time.Now
	}
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	return &Expander{now: now, months: months}
}

func (x *Expander) today() time.Time {
	now := x.now()
	return model.Floating(now.Year(), now.Month(), now.Day(), 0, 0)
}

// Expand returns one entry per future occurrence for a recurring seed, or
// the seed itself when it is not recurring.
func (x *Expander) Expand(seed model.Entry) []model.Entry {
	p, ok := DetectEntry(seed)
	if !ok {
		return []model.Entry{seed}
	}

	times, err := Occurrences(p, x.today(), seed.Start.Hour(), seed.Start.Minute(), x.months)
	if err != nil {
		return []model.Entry{seed}
	}

	out := make([]model.Entry, 0, len(times))
	for _, t := range times {
		e := seed
		e.Start = t
		if strings.TrimSpace(e.RecurringPattern) == "" {
			e.RecurringPattern = p.Label
		}
		if len(seed.Categories) > 0 {
			e.Categories = append([]string(nil), seed.Categories...)
		}
		out = append(out, e)
	}
	return out
}

// ExpandAll expands every entry, keeping input order
func (x *Expander) ExpandAll(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, x.Expand(e)...)
	}
	return out
}
