// Package datetime turns free-text date and time fragments into floating
// local calendar timestamps.
//
// Parsing never fails: an unreadable date becomes the run date and an
// unreadable time becomes a context or category default.
package datetime

import (
	"strings"
	"time"

	"github.com/ppiankov/calscrape/internal/model"
)

// Normalizer resolves candidate date/time hints against the run date
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer. A nil clock uses time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Today returns the run date as a floating midnight
func (n *Normalizer) Today() time.Time {
	now := n.now()
	return model.Floating(now.Year(), now.Month(), now.Day(), 0, 0)
}

// ParseDate parses a date fragment and applies year inference to every
// parsed date, explicit year or not. ok is false when nothing date-like was
// found.
func (n *Normalizer) ParseDate(hint string) (time.Time, bool) {
	today := n.Today()
	t, ok := parseDateText(hint, today.Year())
	if !ok {
		return time.Time{}, false
	}
	parsed := model.Floating(t.Year(), t.Month(), t.Day(), 0, 0)
	return InferYear(parsed, today), true
}

// Date is ParseDate with the run date as fallback
func (n *Normalizer) Date(hint string) time.Time {
	if d, ok := n.ParseDate(hint); ok {
		return d
	}
	return n.Today()
}

// InferYear moves a date more than two months in the past to the next year.
// Future months and the current or two previous months keep their year; the
// stale-date filter handles what is still past.
func InferYear(parsed, today time.Time) time.Time {
	monthsDiff := (today.Year()-parsed.Year())*12 + int(today.Month()) - int(parsed.Month())
	if monthsDiff > 2 {
		return parsed.AddDate(1, 0, 0)
	}
	return parsed
}

// Time resolves a time hint to HH:MM. The hint is scanned first, then the
// context text, then context keywords. Context that names no keyword falls
// through to the category default, so an unmatched meeting stays at 18:00
// rather than moving to a daytime hour.
func (n *Normalizer) Time(hint, context string, category model.Category, seed string) string {
	result := resolveTime(hint, context, category, seed)
	if !ValidHHMM(result) {
		return category.DefaultTime()
	}
	return result
}

func resolveTime(hint, context string, category model.Category, seed string) string {
	if t, ok := ExtractTime(hint); ok {
		return t
	}
	if t, ok := ExtractTime(context); ok {
		return t
	}
	if t, ok := ContextTime(strings.TrimSpace(hint+" "+context), seed); ok {
		return t
	}
	return category.DefaultTime()
}

// Start builds the floating start timestamp for a candidate. Attractions are
// not date-specific and always land on the run date.
func (n *Normalizer) Start(c model.Candidate, category model.Category) time.Time {
	var date time.Time
	var hhmm string

	if category == model.CategoryAttractions {
		date = n.Today()
		if t, ok := ExtractTime(c.TimeHint); ok {
			hhmm = t
		} else {
			hhmm = PlaceTime(c.Title+" "+c.Description+" "+c.Context, c.Title)
		}
	} else {
		date = n.Date(c.DateHint)
		hhmm = n.Time(c.TimeHint, c.Context, category, c.Title)
	}

	return Combine(date, hhmm)
}

// Combine sets the clock of a floating date from an HH:MM string
func Combine(date time.Time, hhmm string) time.Time {
	hour, minute := 0, 0
	if ValidHHMM(hhmm) {
		hour = int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
		minute = int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	}
	return model.Floating(date.Year(), date.Month(), date.Day(), hour, minute)
}

// IsPast reports whether start falls on a date before today
func IsPast(start, today time.Time) bool {
	return model.DateOf(start).Before(model.DateOf(today))
}
