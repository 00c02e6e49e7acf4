// Package dataset loads and writes the tabular inputs and outputs of an
// evaluation run: the reference answer set, the prediction CSV, and the
// scores / detailed-output files.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ReferenceSet maps questions to their acceptable reference answers and
// preserves load order, which defines the alignment used by answer-overlap
// scoring. Immutable after loading.
type ReferenceSet struct {
	questions []string
	answers   map[string][]string
}

// NewReferenceSet builds a reference set from ordered (question, answers)
// pairs. A repeated question keeps its first position; its answer list is
// replaced by the latest occurrence.
func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{answers: make(map[string][]string)}
}

// Add appends one (question, answers) pair.
func (rs *ReferenceSet) Add(question string, answers []string) {
	if _, ok := rs.answers[question]; !ok {
		rs.questions = append(rs.questions, question)
	}
	rs.answers[question] = answers
}

// Questions returns the questions in load order. Callers must not modify
// the returned slice.
func (rs *ReferenceSet) Questions() []string {
	return rs.questions
}

// Answers returns the reference answers for a question.
func (rs *ReferenceSet) Answers(question string) ([]string, bool) {
	answers, ok := rs.answers[question]
	return answers, ok
}

// Contains reports whether the question has reference answers.
func (rs *ReferenceSet) Contains(question string) bool {
	_, ok := rs.answers[question]
	return ok
}

// Len returns the number of reference questions.
func (rs *ReferenceSet) Len() int {
	return len(rs.questions)
}

// ReferenceSource provides the reference answers of a fixed benchmark split.
type ReferenceSource interface {
	Load(ctx context.Context) (*ReferenceSet, error)
}

// JSONLReferenceSource reads a reference split from a JSONL file of
// {"question": ..., "answer": [...]} rows, the standard NQ-Open export
// format.
type JSONLReferenceSource struct {
	Path string
}

// Load reads the whole split. An unreadable file or malformed row is fatal;
// the reference set is the ground truth and must load completely.
func (s *JSONLReferenceSource) Load(ctx context.Context) (*ReferenceSet, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()

	rs := NewReferenceSet()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0

	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var row struct {
			Question string   `json:"question"`
			Answer   []string `json:"answer"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("reference file line %d: %w", line, err)
		}
		rs.Add(row.Question, row.Answer)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading reference file: %w", err)
	}
	if rs.Len() == 0 {
		return nil, fmt.Errorf("reference file %s contains no examples", s.Path)
	}
	return rs, nil
}
