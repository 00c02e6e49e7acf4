package score

import (
	"fmt"
	"sort"

	"github.com/attributed-qa/autoais/internal/dataset"
	"github.com/attributed-qa/autoais/internal/join"
	"github.com/attributed-qa/autoais/internal/passage"
)

// OverlapScorer is the answer-overlap collaborator contract: aligned
// reference-answer lists and predicted answers in, named sub-scores out.
type OverlapScorer interface {
	Score(references [][]string, predictions []string) map[string]float64
}

// Aggregator combines attribution decisions and answer overlap into the
// final named-metric report.
type Aggregator struct {
	overlap OverlapScorer
}

// NewAggregator creates an aggregator delegating answer overlap to scorer.
func NewAggregator(scorer OverlapScorer) *Aggregator {
	return &Aggregator{overlap: scorer}
}

// Aggregate computes the final scores. records must hold one entry per
// reference question in reference iteration order, as produced by the
// joiner; the AutoAIS denominator is the full reference count, never the
// subset that had a passage. Overlap sub-scores are reported in sorted
// name order under "SQuAD (name)".
func (ag *Aggregator) Aggregate(refs *dataset.ReferenceSet, records []join.Record) ([]dataset.Score, error) {
	if len(records) != refs.Len() {
		return nil, fmt.Errorf("record count %d does not cover reference set of %d", len(records), refs.Len())
	}

	entailed := 0
	references := make([][]string, len(records))
	predictions := make([]string, len(records))

	for i, rec := range records {
		answers, ok := refs.Answers(rec.Question)
		if !ok {
			return nil, fmt.Errorf("record %q has no reference answers", rec.Question)
		}
		references[i] = answers
		predictions[i] = rec.Answer
		if rec.AutoAIS == "Y" {
			entailed++
		}
	}

	scores := []dataset.Score{
		{Name: "AutoAIS", Value: float64(entailed) / float64(refs.Len())},
	}

	overlap := ag.overlap.Score(references, predictions)
	names := make([]string, 0, len(overlap))
	for name := range overlap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		scores = append(scores, dataset.Score{
			Name:  fmt.Sprintf("SQuAD (%s)", name),
			Value: overlap[name],
		})
	}

	return scores, nil
}

// DetailRows renders the per-example output table: one row per record with
// the display-formatted passage and the attribution decision, "N" when the
// record was never classified.
func DetailRows(records []join.Record) []dataset.DetailRow {
	rows := make([]dataset.DetailRow, len(records))
	for i, rec := range records {
		autoais := rec.AutoAIS
		if autoais == "" {
			autoais = "N"
		}
		rows[i] = dataset.DetailRow{
			Question: rec.Question,
			Answer:   rec.Answer,
			Passage:  passage.ForDisplay(rec.Passage),
			AutoAIS:  autoais,
		}
	}
	return rows
}
