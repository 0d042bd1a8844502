package model

import (
	"fmt"
	"strings"
)

// Category is the kind of calendar content a source publishes
type Category string

const (
	CategoryEvents      Category = "events"
	CategoryClasses     Category = "classes"
	CategoryMeetings    Category = "meetings"
	CategoryAttractions Category = "attractions"
)

// AllCategories lists categories in the order a full run processes them
var AllCategories = []Category{
	CategoryEvents,
	CategoryClasses,
	CategoryMeetings,
	CategoryAttractions,
}

// ParseCategory converts user input into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryEvents, CategoryClasses, CategoryMeetings, CategoryAttractions:
		return c, nil
	}
	return "", fmt.Errorf("unknown category: %q (supported: events, classes, meetings, attractions)", s)
}

// IsDated reports whether entries of this category are tied to a calendar date.
// Attractions always receive the run date.
func (c Category) IsDated() bool {
	return c != CategoryAttractions
}

// DefaultTime is the HH:MM used when neither the page nor its context yields a time
func (c Category) DefaultTime() string {
	switch c {
	case CategoryEvents:
		return "19:00"
	case CategoryMeetings:
		return "18:00"
	default:
		return "10:00"
	}
}

// Strategy names an extraction strategy
type Strategy string

const (
	StrategyStructural    Strategy = "structural"
	StrategyLLMSinglePass Strategy = "llm_single_pass"
	StrategyLLMTwoStage   Strategy = "llm_two_stage"
)

// ParseStrategy converts user input into a Strategy. Empty input is allowed and
// resolved later by the selector.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "", StrategyStructural, StrategyLLMSinglePass, StrategyLLMTwoStage:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy: %q (supported: structural, llm_single_pass, llm_two_stage)", s)
}

// UsesLLM reports whether the strategy needs the extraction service
func (s Strategy) UsesLLM() bool {
	return s == StrategyLLMSinglePass || s == StrategyLLMTwoStage
}
