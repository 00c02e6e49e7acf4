// Package score computes per-record attribution decisions and aggregates
// them, together with answer-overlap metrics, into the final report.
package score

import (
	"context"
	"log"

	"github.com/attributed-qa/autoais/internal/join"
	"github.com/attributed-qa/autoais/internal/nli"
	"github.com/attributed-qa/autoais/internal/passage"
)

// AttributionStats counts classifier activity during scoring.
type AttributionStats struct {
	Classified int // records sent to the classifier
	Entailed   int // records judged entailed ("Y")
	Skipped    int // records with no passage, excluded from classification
	Errors     int // classifier failures, recorded as "N"
}

// Attributor scores attribution for joined records.
type Attributor struct {
	classifier nli.Classifier
	logger     *log.Logger
}

// NewAttributor creates an attribution scorer over classifier.
func NewAttributor(classifier nli.Classifier, logger *log.Logger) *Attributor {
	if logger == nil {
		logger = log.Default()
	}
	return &Attributor{classifier: classifier, logger: logger}
}

// Score returns a new record slice with AutoAIS decisions attached. Records
// with an empty passage never reach the classifier and keep an empty
// decision; they count toward aggregate denominators only. A classifier
// failure on one record is logged and scored "N"; only context cancellation
// aborts the pass.
func (a *Attributor) Score(ctx context.Context, records []join.Record) ([]join.Record, AttributionStats, error) {
	scored := make([]join.Record, len(records))
	var stats AttributionStats

	for i, rec := range records {
		if rec.Passage == "" {
			stats.Skipped++
			scored[i] = rec
			continue
		}

		query := nli.NewQuery(passage.ForInference(rec.Passage), rec.Question, rec.Answer)
		entailed, err := a.classifier.Classify(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.Errors++
			a.logger.Printf("score: classifier failed for %q: %v", rec.Question, err)
			rec.AutoAIS = "N"
			scored[i] = rec
			continue
		}

		stats.Classified++
		if entailed {
			stats.Entailed++
			rec.AutoAIS = "Y"
		} else {
			rec.AutoAIS = "N"
		}
		scored[i] = rec
	}

	return scored, stats, nil
}
