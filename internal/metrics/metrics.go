// Package metrics exposes Prometheus counters for evaluation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus counters for the evaluation pipeline.
type Metrics struct {
	CorpusLinesScanned  prometheus.Counter
	CorpusLinesSkipped  prometheus.Counter
	CorpusShardsFailed  prometheus.Counter
	PredictionsDropped  prometheus.Counter
	PredictionsSynth    prometheus.Counter
	NLICalls            prometheus.Counter
	NLICacheHits        prometheus.Counter
	NLIEntailed         prometheus.Counter
	NLIErrors           prometheus.Counter
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CorpusLinesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_corpus_lines_scanned_total",
			Help: "Total corpus lines read across all shards",
		}),
		CorpusLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_corpus_lines_skipped_total",
			Help: "Corpus lines skipped because they failed to parse",
		}),
		CorpusShardsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_corpus_shards_failed_total",
			Help: "Corpus shards that could not be scanned",
		}),
		PredictionsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_predictions_dropped_total",
			Help: "Prediction rows dropped for lack of a reference answer",
		}),
		PredictionsSynth: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_predictions_synthesized_total",
			Help: "Reference questions with no prediction, scored as empty answers",
		}),
		NLICalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_nli_calls_total",
			Help: "Records classified by the NLI classifier",
		}),
		NLICacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_nli_cache_hits_total",
			Help: "NLI classifications served from cache or decision store",
		}),
		NLIEntailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_nli_entailed_total",
			Help: "Records judged entailed by the NLI classifier",
		}),
		NLIErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "autoais_nli_errors_total",
			Help: "NLI classifier failures scored as not-entailed",
		}),
	}
}
