package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/attributed-qa/autoais/internal/dataset"
	"github.com/attributed-qa/autoais/internal/decision"
	"github.com/attributed-qa/autoais/internal/metrics"
	"github.com/attributed-qa/autoais/internal/nli"
	"github.com/attributed-qa/autoais/internal/pipeline"
	"github.com/attributed-qa/autoais/pkg/otel"
	"github.com/attributed-qa/autoais/pkg/text"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	// Inputs and outputs
	predictionsFile string
	referenceFile   string
	corpusGlob      string
	scoresFile      string
	aisOutputFile   string
	workers         int

	// NLI serving
	nliEndpoint      string
	nliModel         string
	nliQPS           int
	lexicalThreshold float64

	// Caching
	decisionBackend string
	cacheSize       int
	cacheTTL        time.Duration

	// Observability
	metricsAddr  string
	otlpEndpoint string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autoais-eval",
		Short: "Attributed QA evaluation: AutoAIS attribution and SQuAD answer overlap",
		Long: `Evaluates attributed question answering predictions against a reference
answer set and a sharded passage corpus. Each prediction's attributed passage
is judged by an NLI classifier (AutoAIS); answers are scored with SQuAD
exact-match and token F1. Writes an aggregate scores file and a per-question
detail CSV.`,
		RunE: runEval,
	}

	rootCmd.Flags().StringVar(&predictionsFile, "predictions", "", "Prediction CSV (question,answer,attribution)")
	rootCmd.Flags().StringVar(&referenceFile, "reference", "", "Reference answers JSONL")
	rootCmd.Flags().StringVar(&corpusGlob, "corpus-glob", "", "Glob matching corpus shard JSONL files")
	rootCmd.Flags().StringVar(&scoresFile, "scores-out", "scores.txt", "Aggregate scores output path")
	rootCmd.Flags().StringVar(&aisOutputFile, "ais-out", "autoais.csv", "Per-question detail CSV output path")
	rootCmd.Flags().IntVar(&workers, "workers", pipeline.DefaultWorkers, "Corpus shard scan parallelism")

	rootCmd.Flags().StringVar(&nliEndpoint, "nli-endpoint", "", "NLI serving endpoint URL (empty: lexical heuristic)")
	rootCmd.Flags().StringVar(&nliModel, "nli-model", nli.DefaultModel, "NLI model name sent to the endpoint")
	rootCmd.Flags().IntVar(&nliQPS, "nli-qps", 0, "NLI request rate cap (0: unlimited)")
	rootCmd.Flags().Float64Var(&lexicalThreshold, "lexical-threshold", 0.3, "Accept threshold for the lexical heuristic")

	rootCmd.Flags().StringVar(&decisionBackend, "decision-backend", "memory", "Durable decision store: none, memory, redis, postgres")
	rootCmd.Flags().IntVar(&cacheSize, "cache-size", 10000, "In-process NLI decision LRU size (0: disabled)")
	rootCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 7*24*time.Hour, "TTL for durable decision entries")

	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address, e.g. :9090 (empty: disabled)")
	rootCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC trace collector endpoint (empty: disabled)")

	rootCmd.MarkFlagRequired("predictions")
	rootCmd.MarkFlagRequired("reference")
	rootCmd.MarkFlagRequired("corpus-glob")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if otlpEndpoint != "" {
		otelConfig := otel.DefaultConfig("autoais-eval")
		otelConfig.CollectorEndpoint = otlpEndpoint
		tp, err := otel.InitTracer(ctx, otelConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := otel.Shutdown(context.Background(), tp); err != nil {
				logger.Printf("Tracer shutdown: %v", err)
			}
		}()
	}

	var m *metrics.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		go serveMetrics(metricsAddr, reg, logger)
	}

	store, err := openDecisionStore()
	if err != nil {
		return err
	}
	if store != nil {
		// Close on every exit path: the memory store persists its snapshot
		// in Close, and an interrupted run must still be resumable.
		defer func() {
			if err := store.Close(); err != nil {
				logger.Printf("Decision store close: %v", err)
			}
		}()
	}

	classifier, err := buildClassifier(store)
	if err != nil {
		return err
	}

	config := pipeline.Config{
		PredictionsFile: predictionsFile,
		CorpusGlob:      corpusGlob,
		ScoresFile:      scoresFile,
		AISOutputFile:   aisOutputFile,
		Workers:         workers,
	}
	source := &dataset.JSONLReferenceSource{Path: referenceFile}

	p := pipeline.New(config, source, classifier, text.NewScorer(), m, logger)
	if _, err := p.Run(ctx); err != nil {
		return err
	}
	return nil
}

// openDecisionStore creates the durable decision store selected by flag,
// with connection details from the environment.
func openDecisionStore() (decision.Store, error) {
	switch decisionBackend {
	case "none":
		return nil, nil
	case "memory":
		snapshotPath := getEnv("DECISION_SNAPSHOT", "data/decisions.json")
		return decision.NewMemoryStore(snapshotPath), nil
	case "redis":
		addr := getEnv("REDIS_ADDR", "localhost:6379")
		password := getEnv("REDIS_PASSWORD", "")
		db := getEnvInt("REDIS_DB", 0)
		store, err := decision.NewRedisStore(addr, password, db)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		return store, nil
	case "postgres":
		connStr := getEnv("POSTGRES_CONN", "")
		if connStr == "" {
			return nil, fmt.Errorf("POSTGRES_CONN is required when --decision-backend=postgres")
		}
		store, err := decision.NewPostgresStore(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown decision backend: %s", decisionBackend)
	}
}

// buildClassifier selects the NLI implementation and wraps it with caching.
func buildClassifier(store decision.Store) (nli.Classifier, error) {
	var inner nli.Classifier
	if nliEndpoint != "" {
		inner = nli.NewHTTPClassifier(nliEndpoint, nliModel, nliQPS)
	} else {
		inner = nli.NewLexical(lexicalThreshold)
	}

	if cacheSize <= 0 && store == nil {
		return inner, nil
	}
	size := cacheSize
	if size <= 0 {
		size = 1
	}
	cached, err := nli.NewCached(inner, nliModel, size, store, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	return cached, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	logger.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("Metrics server: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
