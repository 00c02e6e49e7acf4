package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Prediction is one raw row of the system-prediction CSV.
type Prediction struct {
	Question    string
	Answer      string
	Attribution string
}

// predictionColumns is the required header of the prediction CSV.
var predictionColumns = []string{"question", "answer", "attribution"}

// ReadPredictions reads the prediction CSV. The file must carry the
// question,answer,attribution header; column order is taken from the header,
// not assumed.
func ReadPredictions(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}
	for _, col := range predictionColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("predictions file missing column %q", col)
		}
	}

	var predictions []Prediction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read prediction row: %w", err)
		}
		predictions = append(predictions, Prediction{
			Question:    record[colIdx["question"]],
			Answer:      record[colIdx["answer"]],
			Attribution: record[colIdx["attribution"]],
		})
	}

	return predictions, nil
}

// DetailRow is one row of the detailed AIS output file.
type DetailRow struct {
	Question string
	Answer   string
	Passage  string
	AutoAIS  string
}

var detailColumns = []string{"question", "answer", "passage", "autoais"}

// WriteDetail writes the detailed output CSV with the
// question,answer,passage,autoais header.
func WriteDetail(path string, rows []DetailRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create detail output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(detailColumns); err != nil {
		return fmt.Errorf("failed to write detail header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.Question, row.Answer, row.Passage, row.AutoAIS}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write detail row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush detail output: %w", err)
	}
	return nil
}

// ReadDetail reads a detailed output CSV back, for verification and
// downstream AIS analysis tooling.
func ReadDetail(path string) ([]DetailRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detail file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read detail header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}
	for _, col := range detailColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("detail file missing column %q", col)
		}
	}

	var rows []DetailRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read detail row: %w", err)
		}
		rows = append(rows, DetailRow{
			Question: record[colIdx["question"]],
			Answer:   record[colIdx["answer"]],
			Passage:  record[colIdx["passage"]],
			AutoAIS:  record[colIdx["autoais"]],
		})
	}
	return rows, nil
}

// Score is one named metric value. Scores are written in report order.
type Score struct {
	Name  string
	Value float64
}

// WriteScores writes the scores file, one "{name}: {value}" line per metric.
func WriteScores(path string, scores []Score) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scores file: %w", err)
	}
	defer f.Close()

	for _, s := range scores {
		if _, err := fmt.Fprintf(f, "%s: %f\n", s.Name, s.Value); err != nil {
			return fmt.Errorf("failed to write scores file: %w", err)
		}
	}
	return nil
}
