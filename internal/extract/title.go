package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/calscrape/internal/model"
)

const monthNames = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

var (
	gluedDayMonth   = regexp.MustCompile(`(?i)^\d{1,2}` + monthNames + `[a-z]*\.?\s*`)
	ordinalAnnual   = regexp.MustCompile(`(?i)^\d+(?:st|nd|rd|th)\s+annual\s+`)
	leadingYear     = regexp.MustCompile(`^(?:19|20)\d{2}\b[\s:,\-–|]*`)
	leadingNumber   = regexp.MustCompile(`^\d+[.)]?\s+`)
	monthWithDay    = regexp.MustCompile(`(?i)^` + monthNames + `\.?\s*\d{1,2}(?:st|nd|rd|th)?\b[\s:,\-–|]*`)
	monthSeparator  = regexp.MustCompile(`(?i)^` + monthNames + `\.?\s*[:\-–|]\s*`)
	gluedMonthTitle = regexp.MustCompile(`^(?i:` + monthNames + `)([A-Z])`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// junkTitles are navigation and UI labels that are never calendar items
var junkTitles = map[string]bool{
	"log in":        true,
	"sign up":       true,
	"learn more":    true,
	"read more":     true,
	"click here":    true,
	"menu":          true,
	"search":        true,
	"home":          true,
	"about":         true,
	"contact":       true,
	"privacy":       true,
	"terms":         true,
	"getting there": true,
	"share":         true,
	"save":          true,
	"map":           true,
	"photos":        true,
}

// minTitleLen is the shortest title kept after cleanup
const minTitleLen = 3

// CleanTitle removes listing artifacts from a title. Events lose leading
// dates, years, numbering and "Nth annual"; classes lose only bare leading
// numerals so "Week 3" and ordinals survive; meetings are kept verbatim.
func CleanTitle(category model.Category, title string) string {
	title = collapseSpace(title)

	switch category {
	case model.CategoryMeetings:
		return title
	case model.CategoryClasses, model.CategoryAttractions:
		return strings.TrimSpace(leadingNumber.ReplaceAllString(title, ""))
	}

	for i := 0; i < 4; i++ {
		before := title
		title = gluedDayMonth.ReplaceAllString(title, "")
		title = ordinalAnnual.ReplaceAllString(title, "")
		title = leadingYear.ReplaceAllString(title, "")
		title = leadingNumber.ReplaceAllString(title, "")
		title = monthWithDay.ReplaceAllString(title, "")
		title = monthSeparator.ReplaceAllString(title, "")
		title = gluedMonthTitle.ReplaceAllString(title, "$1")
		title = strings.TrimSpace(title)
		if title == before {
			break
		}
	}
	return title
}

// IsJunkTitle reports whether a cleaned title must be discarded
func IsJunkTitle(title string) bool {
	if utf8.RuneCountInString(title) < minTitleLen {
		return true
	}
	return junkTitles[strings.ToLower(title)]
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// prefix returns at most n runes of s
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
