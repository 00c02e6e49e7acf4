package corpus

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanShard(t *testing.T) {
	shard := strings.Join([]string{
		`{"id":"id1","contents":"« T » « T » first passage"}`,
		`not json at all`,
		`{"id":"id2","contents":"second passage"}`,
		`{"id":"id3","contents":"unwanted passage"}`,
	}, "\n")

	wanted := map[string]bool{"id1": true, "id2": true, "missing": true}

	passages, stats, err := ScanShard(strings.NewReader(shard), wanted)
	if err != nil {
		t.Fatalf("ScanShard failed: %v", err)
	}

	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2: %v", len(passages), passages)
	}
	if passages["id1"] != "« T » « T » first passage" {
		t.Errorf("id1 = %q", passages["id1"])
	}
	if _, ok := passages["id3"]; ok {
		t.Error("id3 is not in the wanted set and must be discarded")
	}

	if stats.Lines != 4 {
		t.Errorf("Lines = %d, want 4", stats.Lines)
	}
	if stats.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1", stats.SkippedLines)
	}
	if stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", stats.Matched)
	}
}

func TestScanShardEmpty(t *testing.T) {
	passages, stats, err := ScanShard(strings.NewReader(""), map[string]bool{"x": true})
	if err != nil {
		t.Fatalf("ScanShard failed: %v", err)
	}
	if len(passages) != 0 || stats.Lines != 0 {
		t.Errorf("empty shard: passages=%v lines=%d", passages, stats.Lines)
	}
}

func writeShards(t *testing.T, dir string, shards map[string][]string) {
	t.Helper()
	for name, lines := range shards {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatalf("write shard %s: %v", name, err)
		}
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeShards(t, dir, map[string][]string{
		"shard-00.jsonl": {
			`{"id":"a","contents":"passage a"}`,
			`{"id":"x","contents":"not wanted"}`,
		},
		"shard-01.jsonl": {
			`{"id":"b","contents":"passage b"}`,
			`broken line`,
		},
		"shard-02.jsonl": {
			`{"id":"c","contents":"passage c"}`,
		},
	})

	builder := NewBuilder(4, log.New(io.Discard, "", 0))
	wanted := map[string]bool{"a": true, "b": true, "c": true, "absent": true}

	passages, stats, err := builder.Build(context.Background(), filepath.Join(dir, "shard-*.jsonl"), wanted)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := map[string]string{"a": "passage a", "b": "passage b", "c": "passage c"}
	if len(passages) != len(want) {
		t.Fatalf("got %d passages, want %d: %v", len(passages), len(want), passages)
	}
	for id, contents := range want {
		if passages[id] != contents {
			t.Errorf("passages[%q] = %q, want %q", id, passages[id], contents)
		}
	}

	if stats.Shards != 3 {
		t.Errorf("Shards = %d, want 3", stats.Shards)
	}
	if stats.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1", stats.SkippedLines)
	}
	if stats.FailedShards != 0 {
		t.Errorf("FailedShards = %d, want 0", stats.FailedShards)
	}
}

func TestBuildOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	shards := map[string][]string{}
	wanted := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("id%02d", i)
		wanted[id] = true
		shards[fmt.Sprintf("s-%02d.jsonl", i)] = []string{
			fmt.Sprintf(`{"id":%q,"contents":"passage %02d"}`, id, i),
		}
	}
	writeShards(t, dir, shards)

	glob := filepath.Join(dir, "s-*.jsonl")
	logger := log.New(io.Discard, "", 0)

	// Different worker counts change completion order; the merged mapping
	// must not.
	for _, workers := range []int{1, 3, 16} {
		builder := NewBuilder(workers, logger)
		passages, _, err := builder.Build(context.Background(), glob, wanted)
		if err != nil {
			t.Fatalf("Build(workers=%d) failed: %v", workers, err)
		}
		if len(passages) != 20 {
			t.Fatalf("Build(workers=%d): got %d passages, want 20", workers, len(passages))
		}
		for i := 0; i < 20; i++ {
			id := fmt.Sprintf("id%02d", i)
			if passages[id] != fmt.Sprintf("passage %02d", i) {
				t.Errorf("workers=%d: passages[%q] = %q", workers, id, passages[id])
			}
		}
	}
}

func TestBuildNoShardsFatal(t *testing.T) {
	builder := NewBuilder(2, log.New(io.Discard, "", 0))
	_, _, err := builder.Build(context.Background(), filepath.Join(t.TempDir(), "none-*.jsonl"), map[string]bool{"a": true})
	if err == nil {
		t.Fatal("Build with an empty glob must fail")
	}
}

func TestBuildUnreadableShardIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	writeShards(t, dir, map[string][]string{
		"s-0.jsonl": {`{"id":"a","contents":"passage a"}`},
	})
	// A directory matching the glob is unreadable as a shard.
	if err := os.Mkdir(filepath.Join(dir, "s-1.jsonl"), 0o755); err != nil {
		t.Fatal(err)
	}

	builder := NewBuilder(2, log.New(io.Discard, "", 0))
	passages, stats, err := builder.Build(context.Background(), filepath.Join(dir, "s-*.jsonl"), map[string]bool{"a": true})
	if err != nil {
		t.Fatalf("one bad shard must not abort the build: %v", err)
	}
	if passages["a"] != "passage a" {
		t.Errorf("passages[a] = %q", passages["a"])
	}
	if stats.FailedShards != 1 {
		t.Errorf("FailedShards = %d, want 1", stats.FailedShards)
	}
}

func TestBuildFailedShardKeepsPartialEntries(t *testing.T) {
	dir := t.TempDir()
	writeShards(t, dir, map[string][]string{
		// The over-long line aborts the scan after the first entry matched.
		"s-0.jsonl": {
			`{"id":"a","contents":"passage a"}`,
			strings.Repeat("x", maxLineBytes+1),
		},
		"s-1.jsonl": {`{"id":"b","contents":"passage b"}`},
	})

	builder := NewBuilder(1, log.New(io.Discard, "", 0))
	passages, stats, err := builder.Build(context.Background(), filepath.Join(dir, "s-*.jsonl"), map[string]bool{"a": true, "b": true})
	if err != nil {
		t.Fatalf("one failed shard must not abort the build: %v", err)
	}
	if stats.FailedShards != 1 {
		t.Errorf("FailedShards = %d, want 1", stats.FailedShards)
	}
	if passages["a"] != "passage a" {
		t.Errorf("entries matched before the failure must survive: passages[a] = %q", passages["a"])
	}
	if passages["b"] != "passage b" {
		t.Errorf("passages[b] = %q", passages["b"])
	}
}

func TestBuildCollisionLastMergeWins(t *testing.T) {
	dir := t.TempDir()
	writeShards(t, dir, map[string][]string{
		"s-0.jsonl": {`{"id":"dup","contents":"from shard 0"}`},
		"s-1.jsonl": {`{"id":"dup","contents":"from shard 1"}`},
	})

	builder := NewBuilder(1, log.New(io.Discard, "", 0))
	passages, stats, err := builder.Build(context.Background(), filepath.Join(dir, "s-*.jsonl"), map[string]bool{"dup": true})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats.Collisions != 1 {
		t.Errorf("Collisions = %d, want 1", stats.Collisions)
	}
	if passages["dup"] == "" {
		t.Error("colliding id must still resolve to one of the shard values")
	}
}
