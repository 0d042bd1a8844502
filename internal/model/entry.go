package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// StartLayout is the wire format of Entry.Start: local wall time, no offset
const StartLayout = "2006-01-02T15:04:05"

// DateLayout is the date component of StartLayout
const DateLayout = "2006-01-02"

// Status is the lifecycle state an extractor reports for an item
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusPostponed Status = "postponed"
	StatusUnknown   Status = "unknown"
)

// ParseStatus maps free text to a Status, defaulting to unknown
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusActive, StatusCancelled, StatusPostponed:
		return Status(s)
	case "canceled":
		return StatusCancelled
	}
	return StatusUnknown
}

// Dropped reports whether the item must not produce a calendar entry
func (s Status) Dropped() bool {
	return s == StatusCancelled || s == StatusPostponed
}

// Candidate is an unvalidated item produced by an extractor before normalization
type Candidate struct {
	Title            string
	URL              string
	Description      string
	DateHint         string
	TimeHint         string
	RecurringPattern string
	Status           Status
	Categories       []string

	// Context is surrounding page text used for time inference
	Context string
}

// Entry is a normalized calendar entry. Start holds a floating local time
// (location UTC, never converted).
type Entry struct {
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	Description      string    `json:"description"`
	Start            time.Time `json:"-"`
	AllDay           bool      `json:"allDay"`
	RecurringPattern string    `json:"recurring_pattern,omitempty"`
	Categories       []string  `json:"categories,omitempty"`
	Source           string    `json:"source,omitempty"`
}

// Date returns the YYYY-MM-DD component of Start
func (e Entry) Date() string {
	return e.Start.Format(DateLayout)
}

// StartString returns Start in the output wire format
func (e Entry) StartString() string {
	return e.Start.Format(StartLayout)
}

type entryJSON struct {
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	Description      string   `json:"description"`
	Start            string   `json:"start"`
	AllDay           bool     `json:"allDay"`
	RecurringPattern string   `json:"recurring_pattern,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Source           string   `json:"source,omitempty"`
}

// MarshalJSON emits start as YYYY-MM-DDTHH:MM:SS without a zone
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Title:            e.Title,
		URL:              e.URL,
		Description:      e.Description,
		Start:            e.StartString(),
		AllDay:           e.AllDay,
		RecurringPattern: e.RecurringPattern,
		Categories:       e.Categories,
		Source:           e.Source,
	})
}

// UnmarshalJSON accepts the format written by MarshalJSON
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.ParseInLocation(StartLayout, raw.Start, time.UTC)
	if err != nil {
		return fmt.Errorf("parse start %q: %w", raw.Start, err)
	}
	*e = Entry{
		Title:            raw.Title,
		URL:              raw.URL,
		Description:      raw.Description,
		Start:            start,
		AllDay:           raw.AllDay,
		RecurringPattern: raw.RecurringPattern,
		Categories:       raw.Categories,
		Source:           raw.Source,
	}
	return nil
}

// Floating builds a floating local timestamp from wall clock fields
func Floating(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// DateOf truncates t to its floating calendar date
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
