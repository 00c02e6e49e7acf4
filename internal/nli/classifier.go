// Package nli provides the AutoAIS entailment classifier contract and its
// implementations. A classifier receives one formatted premise/hypothesis
// query and returns exactly one of two classes: entailed or not-entailed.
package nli

import (
	"context"
	"fmt"
	"strings"
)

// Query is one NLI classification request. The hypothesis asserts that the
// predicted answer answers the question; the premise is the formatted
// attributed passage.
type Query struct {
	Premise    string
	Hypothesis string
}

// NewQuery builds the fixed AutoAIS query for a (passage, question, answer)
// triple. premise is the inference-formatted passage text.
func NewQuery(premise, question, answer string) Query {
	return Query{
		Premise:    premise,
		Hypothesis: fmt.Sprintf("The answer to the question '%s' is '%s'", question, answer),
	}
}

// String renders the query in the serving format expected by TRUE-style NLI
// models.
func (q Query) String() string {
	return fmt.Sprintf("premise: %s hypothesis: %s", q.Premise, q.Hypothesis)
}

// Classifier decides whether a query's premise entails its hypothesis.
type Classifier interface {
	Classify(ctx context.Context, q Query) (entailed bool, err error)
}

// Lexical is a dependency-free entailment heuristic: token Jaccard overlap
// between premise and hypothesis with a length penalty and an exact
// substring bonus. It is a smoke-testing stand-in for a served NLI model,
// not a replacement for one.
type Lexical struct {
	Threshold float64
}

// NewLexical creates a lexical classifier with the given accept threshold.
func NewLexical(threshold float64) *Lexical {
	return &Lexical{Threshold: threshold}
}

// Classify scores lexical entailment and thresholds it.
func (l *Lexical) Classify(ctx context.Context, q Query) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.score(q.Premise, q.Hypothesis) >= l.Threshold, nil
}

func (l *Lexical) score(premise, hypothesis string) float64 {
	if premise == "" || hypothesis == "" {
		return 0.0
	}

	premise = strings.ToLower(premise)
	hypothesis = strings.ToLower(hypothesis)

	overlap := jaccard(strings.Fields(premise), strings.Fields(hypothesis))

	// Hypotheses much longer than their premise are unlikely to be entailed.
	lengthPenalty := 1.0
	if ratio := float64(len(hypothesis)) / float64(len(premise)); ratio > 1.5 {
		lengthPenalty = 1.0 / ratio
	}

	score := overlap * lengthPenalty
	if strings.Contains(premise, hypothesis) {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// jaccard computes Jaccard similarity between two word lists.
func jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, w := range a {
		setA[w] = true
	}
	setB := make(map[string]bool, len(b))
	for _, w := range b {
		setB[w] = true
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
