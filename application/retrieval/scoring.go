package retrieval

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

// personalMarkers are the first-person words whose presence flags a query
// as referencing the user's own data. Membership is checked over every word
// of the query, not just retrieval terms, so "i" and "my" still count.
var personalMarkers = map[string]bool{
	"i": true, "me": true, "my": true, "mine": true, "myself": true,
	"remember": true, "recall": true, "remind": true,
	"did": true, "was": true, "am": true,
}

// Tokenize splits a query into lowercase terms longer than minLength.
// These terms are the sole relevance signal fed to store predicates and to
// application-level scoring.
func Tokenize(query string, minLength int) []string {
	words := splitWords(query)
	terms := make([]string, 0, len(words))
	seen := make(map[string]bool)
	for _, w := range words {
		if len(w) > minLength && !seen[w] {
			terms = append(terms, w)
			seen[w] = true
		}
	}
	return terms
}

// DetectPersonal reports whether the query appears to reference personal,
// first-person data. A boolean signal, not a score.
func DetectPersonal(query string) bool {
	for _, w := range splitWords(query) {
		if personalMarkers[w] {
			return true
		}
	}
	return false
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// weightedField pairs one searchable text with its contribution weight
type weightedField struct {
	text   string
	weight float64
}

// fieldText flattens a string slice into one searchable field
func fieldText(values []string) string {
	return strings.Join(values, " ")
}

// matchScore scores one field against the query terms: exact token matches
// count double, substring matches single, normalized by the maximum
// attainable (termCount * 2) so the result stays in [0,1]. An empty term
// list scores zero; there is no divide by zero.
func matchScore(terms []string, text string) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	tokens := make(map[string]bool)
	for _, w := range splitWords(lower) {
		tokens[w] = true
	}

	var raw float64
	for _, term := range terms {
		switch {
		case tokens[term]:
			raw += 2
		case strings.Contains(lower, term):
			raw += 1
		}
	}
	return raw / (float64(len(terms)) * 2)
}

// textScore sums weighted per-field match scores, clipped into [0,1]
func textScore(terms []string, fields []weightedField) float64 {
	var total float64
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		total += f.weight * matchScore(terms, f.text)
	}
	return clip01(total)
}

// recencyScore decays linearly from 1 at the timestamp to 0 at the far edge
// of the decay window
func recencyScore(ts time.Time, window time.Duration, now time.Time) float64 {
	if ts.IsZero() || window <= 0 {
		return 0
	}
	age := now.Sub(ts)
	if age <= 0 {
		return 1
	}
	score := 1 - float64(age)/float64(window)
	if score < 0 {
		return 0
	}
	return score
}

// blend combines text relevance and recency under the configured weights,
// clipped so no candidate ever scores above 1
func blend(text, recency float64, cfg Configuration) float64 {
	return clip01(text*cfg.RelevanceWeight + recency*cfg.RecencyWeight)
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// scored pairs a candidate with its computed relevance
type scored[T any] struct {
	item  T
	score float64
}

// rankAbove filters candidates below the threshold and sorts the survivors
// descending by score. Sorting is stable so the store-level ordering breaks
// ties deterministically.
func rankAbove[T any](candidates []scored[T], threshold float64) []T {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.score >= threshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})
	out := make([]T, len(kept))
	for i, c := range kept {
		out[i] = c.item
	}
	return out
}
