// Package text implements SQuAD-style answer scoring: normalized exact
// match and token-level F1 against a list of reference answers, with the
// best reference taken per example.
package text

import (
	"strings"
	"unicode"
)

// Scorer computes token-overlap answer metrics. The zero value is usable;
// Normalize follows the SQuAD convention (lowercase, drop punctuation,
// drop English articles, collapse whitespace).
type Scorer struct{}

// NewScorer creates an answer-overlap scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

var articles = map[string]bool{"a": true, "an": true, "the": true}

// Normalize lowercases, strips punctuation, removes articles and collapses
// whitespace, Unicode-aware.
func Normalize(answer string) string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		if !articles[word] {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range answer {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return strings.Join(tokens, " ")
}

// normalizedTokens returns the normalized token sequence of an answer.
func normalizedTokens(answer string) []string {
	norm := Normalize(answer)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

// exactMatch reports whether prediction and reference normalize identically.
func exactMatch(prediction, reference string) bool {
	return Normalize(prediction) == Normalize(reference)
}

// tokenF1 computes token-level F1 between a prediction and one reference.
// Counts are multiset overlaps, matching the SQuAD reference scorer.
func tokenF1(prediction, reference string) float64 {
	predTokens := normalizedTokens(prediction)
	refTokens := normalizedTokens(reference)

	if len(predTokens) == 0 || len(refTokens) == 0 {
		// Both empty counts as a match, one empty as a miss.
		if len(predTokens) == len(refTokens) {
			return 1.0
		}
		return 0.0
	}

	refCounts := make(map[string]int, len(refTokens))
	for _, tok := range refTokens {
		refCounts[tok]++
	}

	common := 0
	for _, tok := range predTokens {
		if refCounts[tok] > 0 {
			refCounts[tok]--
			common++
		}
	}

	if common == 0 {
		return 0.0
	}

	precision := float64(common) / float64(len(predTokens))
	recall := float64(common) / float64(len(refTokens))
	return 2 * precision * recall / (precision + recall)
}

// bestOverReferences returns the maximum of score(prediction, ref) over refs.
func bestOverReferences(prediction string, references []string, score func(string, string) float64) float64 {
	best := 0.0
	for _, ref := range references {
		if s := score(prediction, ref); s > best {
			best = s
		}
	}
	return best
}

// Score computes aggregate answer metrics over aligned reference/prediction
// sequences. references[i] is the acceptable answer list for predictions[i].
// Returned scores are percentages in [0, 100], keyed "em" and "f1".
func (s *Scorer) Score(references [][]string, predictions []string) map[string]float64 {
	n := len(predictions)
	if len(references) < n {
		n = len(references)
	}
	if n == 0 {
		return map[string]float64{"em": 0, "f1": 0}
	}

	emSum := 0.0
	f1Sum := 0.0
	for i := 0; i < n; i++ {
		emSum += bestOverReferences(predictions[i], references[i], func(p, r string) float64 {
			if exactMatch(p, r) {
				return 1.0
			}
			return 0.0
		})
		f1Sum += bestOverReferences(predictions[i], references[i], tokenF1)
	}

	return map[string]float64{
		"em": 100 * emSum / float64(n),
		"f1": 100 * f1Sum / float64(n),
	}
}
