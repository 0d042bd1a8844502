package datetime

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockAmPm  = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\b`)
	hourAmPm   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])\.?\s?m\b`)
	bareClock  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	strictHHMM = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Window is an inclusive range of whole hours
type Window struct {
	From int
	To   int
}

// Pick chooses an hour inside the window. The same seed always yields the
// same hour.
func (w Window) Pick(seed string) string {
	span := w.To - w.From + 1
	if span <= 1 {
		return fmt.Sprintf("%02d:00", w.From)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(seed)))
	return fmt.Sprintf("%02d:00", w.From+int(h.Sum32()%uint32(span)))
}

type keywordWindow struct {
	pattern *regexp.Regexp
	window  Window
}

var contextWindows = []keywordWindow{
	{regexp.MustCompile(`(?i)\b(breakfast|brunch|morning)\b`), Window{7, 9}},
	{regexp.MustCompile(`(?i)\b(lunch|noon|luncheon)\b`), Window{11, 13}},
	{regexp.MustCompile(`(?i)\b(dinner|evening|night|concerts?|shows?)\b`), Window{18, 21}},
	{regexp.MustCompile(`(?i)\b(festivals?|fairs?|markets?)\b`), Window{10, 16}},
	{regexp.MustCompile(`(?i)\b(tours?|outdoors?)\b`), Window{9, 15}},
}

var placeWindows = []keywordWindow{
	{regexp.MustCompile(`(?i)\b(museums?|galler(y|ies))\b`), Window{10, 16}},
	{regexp.MustCompile(`(?i)\b(parks?|outdoors?|trails?|gardens?)\b`), Window{8, 18}},
	{regexp.MustCompile(`(?i)\b(restaurants?|cafes?|coffee|diner|grill)\b`), Window{11, 20}},
	{regexp.MustCompile(`(?i)\b(shops?|shopping|stores?|boutiques?)\b`), Window{9, 17}},
}

// placeDefault covers attractions without a recognizable place type
var placeDefault = Window{9, 17}

// ExtractTime scans text for an explicit clock time and returns it as 24-hour HH:MM
func ExtractTime(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if m := clockAmPm.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h, ok := to24(hour, m[3]); ok && minute < 60 {
			return fmt.Sprintf("%02d:%02d", h, minute), true
		}
	}

	if m := hourAmPm.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if h, ok := to24(hour, m[2]); ok {
			return fmt.Sprintf("%02d:00", h), true
		}
	}

	if m := bareClock.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	return "", false
}

func to24(hour int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 {
		return 0, false
	}
	pm := strings.EqualFold(meridiem, "p")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return hour, true
}

// ContextTime picks a time from keyword context, e.g. "breakfast" or "concert"
func ContextTime(context, seed string) (string, bool) {
	for _, kw := range contextWindows {
		if kw.pattern.MatchString(context) {
			return kw.window.Pick(seed), true
		}
	}
	return "", false
}

// PlaceTime picks a visiting time for an attraction from its inferred place type
func PlaceTime(context, seed string) string {
	for _, kw := range placeWindows {
		if kw.pattern.MatchString(context) {
			return kw.window.Pick(seed)
		}
	}
	return placeDefault.Pick(seed)
}

// ValidHHMM reports whether s is a strict 24-hour HH:MM string
func ValidHHMM(s string) bool {
	if !strictHHMM.MatchString(s) {
		return false
	}
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[3:])
	return hour < 24 && minute < 60
}
