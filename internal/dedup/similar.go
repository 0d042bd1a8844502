package dedup

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ppiankov/calscrape/internal/model"
)

// mergeSimilar collapses attractions whose normalized titles are at least
// d.similarity alike. Categories of merged entries are unioned. Passes repeat
// until stable because a winner's title can move it closer to another entry.
func (d *Deduplicator) mergeSimilar(entries []model.Entry) []model.Entry {
	out := entries
	for {
		next := d.similarPass(out)
		if len(next) == len(out) {
			if removed := len(entries) - len(next); removed > 0 {
				d.logger.Info().
					Str("category", string(model.CategoryAttractions)).
					Int("removed", removed).
					Int("remaining", len(next)).
					Msg("Merged similar attractions")
			}
			return next
		}
		out = next
	}
}

func (d *Deduplicator) similarPass(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	norms := make([]string, 0, len(entries))

	for _, e := range entries {
		norm := EventTitle(e.Title)
		merged := false
		for i := range out {
			if Similarity(norm, norms[i]) < d.similarity {
				continue
			}
			categories := unionCategories(out[i].Categories, e.Categories)
			out[i] = d.resolve(out[i], e)
			out[i].Categories = categories
			norms[i] = EventTitle(out[i].Title)
			merged = true
			break
		}
		if !merged {
			out = append(out, e)
			norms = append(norms, norm)
		}
	}
	return out
}

func unionCategories(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, c := range list {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Similarity is the Ratcliff/Obershelp ratio of a and b compared rune by
// rune. Identical strings score 1.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
