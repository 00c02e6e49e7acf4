package corpus

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
)

// BuildStats aggregates recoverable events across all shards of a build.
type BuildStats struct {
	Shards       int
	FailedShards int
	Lines        int
	SkippedLines int
	Collisions   int
}

// Builder fans ScanShardFile out over all shards of a corpus with a bounded
// worker pool and merges partial results into one id→passage mapping.
type Builder struct {
	workers int
	logger  *log.Logger
}

// NewBuilder creates a corpus index builder. workers caps shard-scan
// parallelism; values below 1 are treated as 1.
func NewBuilder(workers int, logger *log.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{workers: workers, logger: logger}
}

// Build resolves the shard glob and scans every shard concurrently,
// returning the merged id→passage mapping for the wanted set. It returns
// only after every worker has finished; no partial index is ever exposed.
//
// A single unreadable shard is logged and counted, not fatal. A glob that
// matches no shards is fatal, since it would silently yield an empty corpus.
// Context cancellation stops the scan and surfaces ctx.Err().
func (b *Builder) Build(ctx context.Context, glob string, wanted map[string]bool) (map[string]string, BuildStats, error) {
	shards, err := filepath.Glob(glob)
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("invalid corpus glob %q: %w", glob, err)
	}
	if len(shards) == 0 {
		return nil, BuildStats{}, fmt.Errorf("corpus glob %q matched no shards", glob)
	}

	stats := BuildStats{Shards: len(shards)}
	passages := make(map[string]string, len(wanted))

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex // guards passages and stats during merge

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shard := range jobs {
				partial, scan, err := ScanShardFile(shard, wanted)
				if err != nil {
					b.logger.Printf("corpus: %v", err)
				}

				mu.Lock()
				stats.Lines += scan.Lines
				stats.SkippedLines += scan.SkippedLines
				if err != nil {
					// Entries matched before the failure point are still
					// merged below.
					stats.FailedShards++
				}
				for id, contents := range partial {
					if _, dup := passages[id]; dup {
						// Ids are assumed globally unique; last merge wins.
						stats.Collisions++
						b.logger.Printf("corpus: duplicate id %q across shards, keeping latest", id)
					}
					passages[id] = contents
				}
				mu.Unlock()
			}
		}()
	}

	var sendErr error
feed:
	for _, shard := range shards {
		select {
		case jobs <- shard:
		case <-ctx.Done():
			sendErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if sendErr != nil {
		return nil, stats, fmt.Errorf("corpus build cancelled: %w", sendErr)
	}
	if stats.FailedShards == stats.Shards {
		return nil, stats, fmt.Errorf("all %d corpus shards failed to scan", stats.Shards)
	}
	return passages, stats, nil
}
