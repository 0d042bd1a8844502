package dedup

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/model"
)

// DefaultSimilarity is the title similarity at which two attractions are the
// same place
const DefaultSimilarity = 0.85

const keyTitleLen = 50

var (
	leadingYear    = regexp.MustCompile(`^\d{4}\s+`)
	ordinalAnnual  = regexp.MustCompile(`^\d+(st|nd|rd|th)\s+annual\s+`)
	leadingAnnual  = regexp.MustCompile(`^annual\s+`)
	leadingArticle = regexp.MustCompile(`^(the|a|an)\s+`)
	nonWord        = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	instructorPattern = regexp.MustCompile(`(?:\b[Ww]ith|\b[Bb]y|[Ii]nstructor:)\s+([A-Z][\p{L}'-]*(?:\s+[A-Z][\p{L}'-]*){0,2})`)
	locationPattern   = regexp.MustCompile(`(?i)\blocation:\s*([^.;|\n]+)`)
)

// Deduplicator merges the entries of all sources of one category
type Deduplicator struct {
	similarity float64
	logger     zerolog.Logger
}

// New creates a deduplicator. A non-positive similarity uses DefaultSimilarity.
func New(similarity float64, logger zerolog.Logger) *Deduplicator {
	if similarity <= 0 {
		similarity = DefaultSimilarity
	}
	return &Deduplicator{similarity: similarity, logger: logger}
}

// Merge collapses equivalent entries. Winners keep the position of the first
// entry of their group, so input order is otherwise preserved.
func (d *Deduplicator) Merge(category model.Category, entries []model.Entry) []model.Entry {
	if category == model.CategoryAttractions {
		return d.mergeSimilar(entries)
	}

	index := make(map[string]int, len(entries))
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		key := Key(category, e)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, e)
			continue
		}
		out[i] = d.resolve(out[i], e)
	}

	if removed := len(entries) - len(out); removed > 0 {
		d.logger.Info().
			Str("category", string(category)).
			Int("removed", removed).
			Int("remaining", len(out)).
			Msg("Merged duplicate entries")
	}
	return out
}

// resolve returns the winner of two equivalent entries
func (d *Deduplicator) resolve(kept, candidate model.Entry) model.Entry {
	winner, loser := kept, candidate
	if Prefer(candidate, kept) {
		winner, loser = candidate, kept
	}
	d.logger.Debug().
		Str("kept", winner.Title).
		Str("dropped", loser.Title).
		Str("date", winner.Date()).
		Msg("Duplicate entry")
	return winner
}

// Prefer reports whether a should win over b: an entry with a description
// beats one without, otherwise the longer title wins
func Prefer(a, b model.Entry) bool {
	aDesc := strings.TrimSpace(a.Description) != ""
	bDesc := strings.TrimSpace(b.Description) != ""
	if aDesc != bDesc {
		return aDesc
	}
	return len([]rune(a.Title)) > len([]rune(b.Title))
}

// Key returns the equivalence key of an entry within its category
func Key(category model.Category, e model.Entry) string {
	date := e.Date()
	switch category {
	case model.CategoryClasses:
		return date + "|" + Instructor(e) + "|" + truncate(ClassTitle(e.Title), keyTitleLen)
	case model.CategoryMeetings:
		return date + "|" + Location(e) + "|" + strings.ToLower(collapse(e.Title))
	default:
		return date + "|" + truncate(EventTitle(e.Title), keyTitleLen)
	}
}

// EventTitle normalizes event titles aggressively: leading year, "Nth annual",
// "annual" and articles are stripped in any order, along with punctuation
func EventTitle(title string) string {
	t := strings.ToLower(collapse(title))
	for {
		prev := t
		t = leadingYear.ReplaceAllString(t, "")
		t = ordinalAnnual.ReplaceAllString(t, "")
		t = leadingAnnual.ReplaceAllString(t, "")
		t = leadingArticle.ReplaceAllString(t, "")
		if t == prev {
			break
		}
	}
	return collapse(nonWord.ReplaceAllString(t, " "))
}

// ClassTitle normalizes class titles gently; ordinals and "Week N" markers
// survive
func ClassTitle(title string) string {
	return collapse(nonWord.ReplaceAllString(strings.ToLower(title), " "))
}

// Instructor extracts an instructor name from the title, then the description
func Instructor(e model.Entry) string {
	for _, text := range []string{e.Title, e.Description} {
		if m := instructorPattern.FindStringSubmatch(text); m != nil {
			return strings.ToLower(strings.TrimRight(m[1], "-'"))
		}
	}
	return ""
}

// Location extracts a "Location: ..." value from the description
func Location(e model.Entry) string {
	if m := locationPattern.FindStringSubmatch(e.Description); m != nil {
		return strings.ToLower(collapse(m[1]))
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
