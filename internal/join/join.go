// Package join aligns the three evaluation inputs: reference answers,
// system predictions, and the corpus passage mapping. Every stage builds
// new record values; records handed downstream are never mutated.
package join

import (
	"log"

	"github.com/attributed-qa/autoais/internal/dataset"
)

// Record is one per-question evaluation record. Question is the join key
// into the reference set, Attribution the key into the passage mapping.
// AutoAIS is "Y" or "N" once attribution has been scored, "" before.
type Record struct {
	Question    string
	Answer      string
	Attribution string
	Passage     string
	AutoAIS     string
	Synthesized bool
}

// Stats counts the recoverable join events of one run.
type Stats struct {
	Predictions int
	Dropped     int // prediction question absent from the reference set
	Duplicates  int // repeated prediction for the same question, last wins
	Synthesized int // reference question with no prediction
	NoPassage   int // retained record whose attribution id was not found
}

// Joiner builds the evaluation record set.
type Joiner struct {
	logger *log.Logger
}

// NewJoiner creates a joiner. Recoverable events are reported on logger.
func NewJoiner(logger *log.Logger) *Joiner {
	if logger == nil {
		logger = log.Default()
	}
	return &Joiner{logger: logger}
}

// Join merges predictions with the reference set. The result has exactly one
// record per reference question, in reference iteration order: a prediction
// record where one exists, a synthesized empty-answer record otherwise, so
// aggregate denominators cover the full reference set. Predictions whose
// question has no reference answers are dropped with a warning. The second
// return value is the wanted-identifier set for the corpus scan.
func (j *Joiner) Join(refs *dataset.ReferenceSet, predictions []dataset.Prediction) ([]Record, map[string]bool, Stats) {
	stats := Stats{Predictions: len(predictions)}

	byQuestion := make(map[string]dataset.Prediction, len(predictions))
	wanted := make(map[string]bool, len(predictions))

	for _, pred := range predictions {
		if !refs.Contains(pred.Question) {
			stats.Dropped++
			j.logger.Printf("join: skipping %q - no reference answer", pred.Question)
			continue
		}
		if _, dup := byQuestion[pred.Question]; dup {
			stats.Duplicates++
			j.logger.Printf("join: duplicate prediction for %q, keeping latest", pred.Question)
		}
		byQuestion[pred.Question] = pred
		wanted[pred.Attribution] = true
	}

	records := make([]Record, 0, refs.Len())
	for _, question := range refs.Questions() {
		pred, ok := byQuestion[question]
		if !ok {
			stats.Synthesized++
			j.logger.Printf("join: ERROR no prediction for %q, scoring empty answer", question)
			records = append(records, Record{Question: question, Synthesized: true})
			continue
		}
		records = append(records, Record{
			Question:    question,
			Answer:      pred.Answer,
			Attribution: pred.Attribution,
		})
	}

	return records, wanted, stats
}

// AttachPassages returns a new record slice with each record's passage
// resolved from the corpus mapping. A missing attribution id leaves the
// passage empty; such records are excluded from attribution scoring but
// stay in answer-overlap scoring.
func (j *Joiner) AttachPassages(records []Record, passages map[string]string, stats *Stats) []Record {
	attached := make([]Record, len(records))
	for i, rec := range records {
		rec.Passage = passages[rec.Attribution]
		if rec.Passage == "" && !rec.Synthesized {
			stats.NoPassage++
		}
		attached[i] = rec
	}
	return attached
}
