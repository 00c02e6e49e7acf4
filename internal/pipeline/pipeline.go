// Package pipeline orchestrates an attributed-QA evaluation run: load
// reference answers and predictions, join them, build the corpus index,
// score attribution, aggregate metrics, and write the output files.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/attributed-qa/autoais/internal/corpus"
	"github.com/attributed-qa/autoais/internal/dataset"
	"github.com/attributed-qa/autoais/internal/join"
	"github.com/attributed-qa/autoais/internal/metrics"
	"github.com/attributed-qa/autoais/internal/nli"
	"github.com/attributed-qa/autoais/internal/score"
	"github.com/attributed-qa/autoais/pkg/otel"
)

const tracerName = "autoais/pipeline"

// DefaultWorkers is the default shard-scan parallelism.
const DefaultWorkers = 16

// Config is the immutable configuration of one evaluation run.
type Config struct {
	PredictionsFile string // input prediction CSV
	CorpusGlob      string // corpus shard location pattern
	ScoresFile      string // scores output path
	AISOutputFile   string // detailed output path
	Workers         int    // shard-scan worker count, DefaultWorkers if 0
}

// Result carries the final scores and the per-stage statistics of a run.
type Result struct {
	Scores      []dataset.Score
	Join        join.Stats
	Build       corpus.BuildStats
	Attribution score.AttributionStats
}

// Pipeline evaluates predictions against a reference set and a corpus.
type Pipeline struct {
	config     Config
	source     dataset.ReferenceSource
	classifier nli.Classifier
	overlap    score.OverlapScorer
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// New creates a pipeline. metrics may be nil; logger defaults to the
// standard logger.
func New(config Config, source dataset.ReferenceSource, classifier nli.Classifier, overlap score.OverlapScorer, m *metrics.Metrics, logger *log.Logger) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		config:     config,
		source:     source,
		classifier: classifier,
		overlap:    overlap,
		metrics:    m,
		logger:     logger,
	}
}

// Run executes the full evaluation. Output files are written only after
// every stage has completed; any configuration-level failure aborts the
// run with no partial outputs.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "evaluate")
	defer span.End()

	p.logger.Printf("Loading reference answers...")
	refs, err := p.source.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("loading reference answers: %w", err)
	}
	p.logger.Printf("Loaded %d reference answers.", refs.Len())

	p.logger.Printf("Reading predictions...")
	predictions, err := dataset.ReadPredictions(p.config.PredictionsFile)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("reading predictions: %w", err)
	}
	span.SetAttributes(
		otel.AttrReferenceCount.Int(refs.Len()),
		otel.AttrPredictions.Int(len(predictions)),
	)

	joiner := join.NewJoiner(p.logger)
	records, wanted, joinStats := joiner.Join(refs, predictions)
	p.logger.Printf("Joined %d predictions: %d dropped, %d synthesized.",
		joinStats.Predictions, joinStats.Dropped, joinStats.Synthesized)

	p.logger.Printf("Retrieving passages...")
	passages, buildStats, err := p.buildCorpusIndex(ctx, wanted)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("building corpus index: %w", err)
	}
	p.logger.Printf("Retrieved %d of %d wanted passages from %d shards (%d lines skipped, %d shards failed).",
		len(passages), len(wanted), buildStats.Shards, buildStats.SkippedLines, buildStats.FailedShards)

	records = joiner.AttachPassages(records, passages, &joinStats)
	if joinStats.NoPassage > 0 {
		p.logger.Printf("%d records have no passage and are excluded from attribution scoring.", joinStats.NoPassage)
	}

	p.logger.Printf("Scoring predictions...")
	records, attrStats, err := p.scoreAttribution(ctx, records)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("scoring attribution: %w", err)
	}

	scores, err := score.NewAggregator(p.overlap).Aggregate(refs, records)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}

	p.recordMetrics(joinStats, buildStats, attrStats)

	p.logger.Printf("Writing outputs...")
	for _, s := range scores {
		p.logger.Printf("%s: %f", s.Name, s.Value)
	}
	if err := dataset.WriteScores(p.config.ScoresFile, scores); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if err := dataset.WriteDetail(p.config.AISOutputFile, score.DetailRows(records)); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	return &Result{
		Scores:      scores,
		Join:        joinStats,
		Build:       buildStats,
		Attribution: attrStats,
	}, nil
}

func (p *Pipeline) buildCorpusIndex(ctx context.Context, wanted map[string]bool) (map[string]string, corpus.BuildStats, error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "build_corpus_index",
		otel.AttrWantedIDs.Int(len(wanted)))
	defer span.End()

	builder := corpus.NewBuilder(p.config.Workers, p.logger)
	passages, stats, err := builder.Build(ctx, p.config.CorpusGlob, wanted)
	if err != nil {
		otel.RecordError(span, err)
		return nil, stats, err
	}
	span.SetAttributes(
		otel.AttrShards.Int(stats.Shards),
		otel.AttrPassagesFound.Int(len(passages)),
	)
	return passages, stats, nil
}

func (p *Pipeline) scoreAttribution(ctx context.Context, records []join.Record) ([]join.Record, score.AttributionStats, error) {
	ctx, span := otel.StartSpan(ctx, tracerName, "score_attribution")
	defer span.End()

	attributor := score.NewAttributor(p.classifier, p.logger)
	scored, stats, err := attributor.Score(ctx, records)
	if err != nil {
		otel.RecordError(span, err)
		return nil, stats, err
	}
	span.SetAttributes(
		otel.AttrClassified.Int(stats.Classified),
		otel.AttrEntailed.Int(stats.Entailed),
	)
	return scored, stats, nil
}

func (p *Pipeline) recordMetrics(joinStats join.Stats, buildStats corpus.BuildStats, attrStats score.AttributionStats) {
	if p.metrics == nil {
		return
	}
	p.metrics.CorpusLinesScanned.Add(float64(buildStats.Lines))
	p.metrics.CorpusLinesSkipped.Add(float64(buildStats.SkippedLines))
	p.metrics.CorpusShardsFailed.Add(float64(buildStats.FailedShards))
	p.metrics.PredictionsDropped.Add(float64(joinStats.Dropped))
	p.metrics.PredictionsSynth.Add(float64(joinStats.Synthesized))
	p.metrics.NLICalls.Add(float64(attrStats.Classified))
	p.metrics.NLIEntailed.Add(float64(attrStats.Entailed))
	p.metrics.NLIErrors.Add(float64(attrStats.Errors))

	if cached, ok := p.classifier.(*nli.Cached); ok {
		stats := cached.Stats()
		p.metrics.NLICacheHits.Add(float64(stats.LRUHits + stats.StoreHits))
	}
}
