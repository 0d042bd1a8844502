package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

// Candidate patterns, most specific first. The first pattern with a match wins.
var dateCandidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?\b`),
	regexp.MustCompile(`(?i)\b` + monthPattern + `\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s+\d{4}\b)?`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `(?:,?\s+\d{4}\b)?`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	septShort     = regexp.MustCompile(`(?i)\bsept\b`)
	ofWord        = regexp.MustCompile(`(?i)\bof\s+`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// findDateCandidate returns the first date-looking substring of text
func findDateCandidate(text string) string {
	for _, re := range dateCandidatePatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// parseDateText extracts a calendar date from free text. A candidate without
// a year is read in year.
func parseDateText(text string, year int) (time.Time, bool) {
	candidate := findDateCandidate(strings.ReplaceAll(text, "\u00a0", " "))
	if candidate == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(canonicalDate(candidate, year), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// canonicalDate rewrites a candidate into "2006-01-02", "1/2/2006",
// "January 2, 2006" or "2 January 2006"
func canonicalDate(candidate string, year int) string {
	s := normalizeDateInput(candidate)
	if m := isoDate.FindString(s); m != "" {
		return m
	}

	if strings.Contains(s, "/") {
		if strings.Count(s, "/") == 1 {
			return fmt.Sprintf("%s/%d", s, year)
		}
		return s
	}

	fields := strings.Fields(s)
	if len(fields) == 2 {
		fields = append(fields, strconv.Itoa(year))
	}
	if len(fields) != 3 {
		return s
	}
	if unicode.IsDigit(rune(fields[0][0])) {
		return strings.Join(fields, " ")
	}
	return fmt.Sprintf("%s %s, %s", fields[0], fields[1], fields[2])
}

func normalizeDateInput(candidate string) string {
	s := strings.TrimSpace(candidate)
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = septShort.ReplaceAllString(s, "sep")
	s = ofWord.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}
