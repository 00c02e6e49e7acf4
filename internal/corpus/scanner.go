// Package corpus reads sharded JSONL attribution corpora. Each shard is a
// newline-delimited sequence of {"id": ..., "contents": ...} objects; only
// entries whose id is in the wanted set are retained, so memory is bounded
// by the wanted-set size rather than the corpus size.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Entry is one parsed corpus line.
type Entry struct {
	ID       string `json:"id"`
	Contents string `json:"contents"`
}

// ScanStats reports per-shard recoverable events.
type ScanStats struct {
	Lines        int
	SkippedLines int
	Matched      int
}

// maxLineBytes bounds a single corpus line; passages are paragraphs, not
// documents, so 4 MiB is generous.
const maxLineBytes = 4 << 20

// ScanShard streams one shard and extracts wanted entries into a fresh map.
// Malformed lines are counted and skipped, never fatal. The scan touches no
// shared state; its result is a pure function of the shard contents and the
// wanted set.
func ScanShard(r io.Reader, wanted map[string]bool) (map[string]string, ScanStats, error) {
	passages := make(map[string]string)
	var stats ScanStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.Lines++

		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			stats.SkippedLines++
			continue
		}

		if wanted[entry.ID] {
			passages[entry.ID] = entry.Contents
			stats.Matched++
		}
	}

	if err := scanner.Err(); err != nil {
		return passages, stats, fmt.Errorf("shard scan failed: %w", err)
	}
	return passages, stats, nil
}

// ScanShardFile opens a shard path and scans it.
func ScanShardFile(path string, wanted map[string]bool) (map[string]string, ScanStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("failed to open shard %s: %w", path, err)
	}
	defer f.Close()

	passages, stats, err := ScanShard(f, wanted)
	if err != nil {
		return passages, stats, fmt.Errorf("shard %s: %w", path, err)
	}
	return passages, stats, nil
}
