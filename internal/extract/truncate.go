package extract

import (
	"strings"
	"unicode"
)

// sentenceCutRatio is how far into the budget a sentence end must be to be
// used as the cut point
const sentenceCutRatio = 0.6

// Truncate shortens text to at most limit runes plus an optional ellipsis.
// It cuts after the last '.', '!' or '?' when that lies at or past 60% of
// the limit, otherwise at the last whitespace with "..." appended.
func Truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	threshold := int(float64(limit) * sentenceCutRatio)

	for i := len(cut) - 1; i >= threshold; i-- {
		if cut[i] == '.' || cut[i] == '!' || cut[i] == '?' {
			return string(cut[:i+1])
		}
	}

	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace) + "..."
		}
	}
	return string(cut) + "..."
}
