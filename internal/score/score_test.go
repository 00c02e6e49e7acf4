package score

import (
	"context"
	"io"
	"log"
	"math"
	"testing"

	"github.com/attributed-qa/autoais/internal/dataset"
	"github.com/attributed-qa/autoais/internal/join"
	"github.com/attributed-qa/autoais/internal/nli"
	"github.com/attributed-qa/autoais/pkg/text"
)

// stubClassifier returns a fixed decision and records the queries it saw.
type stubClassifier struct {
	entailed bool
	queries  []nli.Query
}

func (s *stubClassifier) Classify(ctx context.Context, q nli.Query) (bool, error) {
	s.queries = append(s.queries, q)
	return s.entailed, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAttributorScore(t *testing.T) {
	classifier := &stubClassifier{entailed: true}
	attributor := NewAttributor(classifier, discardLogger())

	records := []join.Record{
		{Question: "q1", Answer: "a1", Passage: "« T » « T, S » body"},
		{Question: "q2", Answer: "a2", Passage: ""}, // no passage
		{Question: "q3", Synthesized: true},         // synthesized, no passage
	}

	scored, stats, err := attributor.Score(context.Background(), records)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if scored[0].AutoAIS != "Y" {
		t.Errorf("scored[0].AutoAIS = %q, want Y", scored[0].AutoAIS)
	}
	if scored[1].AutoAIS != "" || scored[2].AutoAIS != "" {
		t.Error("records without a passage must keep an empty decision")
	}

	if len(classifier.queries) != 1 {
		t.Fatalf("classifier saw %d queries, want 1 (empty passages excluded)", len(classifier.queries))
	}
	wantPremise := "T, S. body"
	if classifier.queries[0].Premise != wantPremise {
		t.Errorf("premise = %q, want %q", classifier.queries[0].Premise, wantPremise)
	}

	want := AttributionStats{Classified: 1, Entailed: 1, Skipped: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	// Input records are not mutated.
	if records[0].AutoAIS != "" {
		t.Error("Score must build new records, not mutate its input")
	}
}

func TestAggregate(t *testing.T) {
	refs := dataset.NewReferenceSet()
	refs.Add("q1", []string{"a1", "a2"})
	refs.Add("q2", []string{"b1"})

	records := []join.Record{
		{Question: "q1", Answer: "a1", AutoAIS: "Y"},
		{Question: "q2", Synthesized: true}, // never scored
	}

	scores, err := NewAggregator(text.NewScorer()).Aggregate(refs, records)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	byName := map[string]float64{}
	for _, s := range scores {
		byName[s.Name] = s.Value
	}

	// Denominator is the full reference count, including the synthesized
	// record.
	if got := byName["AutoAIS"]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("AutoAIS = %v, want 0.5", got)
	}
	if got := byName["SQuAD (em)"]; math.Abs(got-50.0) > 1e-9 {
		t.Errorf("SQuAD (em) = %v, want 50.0", got)
	}
	if scores[0].Name != "AutoAIS" {
		t.Errorf("first metric = %q, want AutoAIS", scores[0].Name)
	}
}

func TestAggregateRecordMismatch(t *testing.T) {
	refs := dataset.NewReferenceSet()
	refs.Add("q1", []string{"a1"})
	refs.Add("q2", []string{"b1"})

	_, err := NewAggregator(text.NewScorer()).Aggregate(refs, []join.Record{{Question: "q1"}})
	if err == nil {
		t.Fatal("record set not covering the reference set must be rejected")
	}
}

func TestDetailRows(t *testing.T) {
	records := []join.Record{
		{Question: "q1", Answer: "a1", Passage: "« X » « X, Y » body", AutoAIS: "Y"},
		{Question: "q2", Answer: "a2", Passage: "", AutoAIS: ""},
	}

	rows := DetailRows(records)

	if rows[0].Passage != "Title: X\nSection: Y\n\nbody" {
		t.Errorf("rows[0].Passage = %q", rows[0].Passage)
	}
	if rows[0].AutoAIS != "Y" {
		t.Errorf("rows[0].AutoAIS = %q, want Y", rows[0].AutoAIS)
	}
	if rows[1].AutoAIS != "N" {
		t.Errorf("rows[1].AutoAIS = %q, want default N", rows[1].AutoAIS)
	}
	// Each row's question is bound to its own record.
	if rows[0].Question != "q1" || rows[1].Question != "q2" {
		t.Errorf("rows carry wrong questions: %+v", rows)
	}
}
