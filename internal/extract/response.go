package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/calscrape/internal/model"
)

// ListingItem is one item of a listing extraction response
type ListingItem struct {
	Title            string
	Date             string
	Time             string
	Description      string
	URL              string
	RecurringPattern string
	Status           string
	Categories       []string
}

// Candidate converts the item for post-processing
func (it ListingItem) Candidate() model.Candidate {
	return model.Candidate{
		Title:            it.Title,
		URL:              it.URL,
		Description:      it.Description,
		DateHint:         it.Date,
		TimeHint:         it.Time,
		RecurringPattern: it.RecurringPattern,
		Status:           model.ParseStatus(strings.ToLower(strings.TrimSpace(it.Status))),
		Categories:       it.Categories,
		Context:          it.Title + " " + it.Description,
	}
}

// DetailResult is the Stage-2 response for one detail page
type DetailResult struct {
	Status           model.Status
	Dates            []string
	Time             string
	Description      string
	RecurringPattern string
	CorrectedTitle   string
}

var errEmptyResponse = errors.New("empty response")

// StripFences removes markdown code fences around a JSON payload
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseListing decodes a JSON array of items. An object wrapping a single
// array (e.g. {"events": [...]}) is accepted too.
func ParseListing(raw string) ([]ListingItem, error) {
	payload := StripFences(raw)
	if payload == "" {
		return nil, errEmptyResponse
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		var wrapped map[string]json.RawMessage
		if werr := json.Unmarshal([]byte(payload), &wrapped); werr != nil {
			return nil, fmt.Errorf("parse listing response: %w", err)
		}
		found := false
		for _, v := range wrapped {
			if json.Unmarshal(v, &rows) == nil {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("parse listing response: %w", err)
		}
	}

	items := make([]ListingItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListingItem{
			Title:            stringField(row, "title"),
			Date:             stringField(row, "date"),
			Time:             stringField(row, "time"),
			Description:      stringField(row, "description"),
			URL:              stringField(row, "url"),
			RecurringPattern: stringField(row, "recurring_pattern"),
			Status:           stringField(row, "status"),
			Categories:       stringsField(row, "categories"),
		})
	}
	return items, nil
}

// ParseDetail decodes a Stage-2 JSON object
func ParseDetail(raw string) (DetailResult, error) {
	payload := StripFences(raw)
	if start, end := strings.Index(payload, "{"), strings.LastIndex(payload, "}"); start >= 0 && end > start {
		payload = payload[start : end+1]
	} else {
		return DetailResult{}, errEmptyResponse
	}

	var row map[string]any
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return DetailResult{}, fmt.Errorf("parse detail response: %w", err)
	}

	dates := stringsField(row, "dates")
	if len(dates) == 0 {
		if d := stringField(row, "date"); d != "" {
			dates = []string{d}
		}
	}

	return DetailResult{
		Status:           model.ParseStatus(strings.ToLower(stringField(row, "status"))),
		Dates:            dates,
		Time:             stringField(row, "time"),
		Description:      stringField(row, "description"),
		RecurringPattern: stringField(row, "recurring_pattern"),
		CorrectedTitle:   stringField(row, "corrected_title"),
	}, nil
}

func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

func stringsField(row map[string]any, key string) []string {
	switch v := row[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{strings.TrimSpace(v)}
		}
	}
	return nil
}
