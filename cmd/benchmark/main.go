// ABOUTME: Command-line benchmark runner for segmentation quality
// ABOUTME: Scores built-in scenarios or a stored test split and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/harper/topicseg/benchmarks/segeval"
	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/llm"
	"github.com/harper/topicseg/internal/logging"
	"github.com/harper/topicseg/internal/storage/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	// Command-line flags
	testID := flag.String("test", "", "Run specific scenario (topics, single, meeting). If empty, runs all.")
	dataset := flag.String("dataset", "", "Score sampled test-split segments of this dataset instead of the built-in scenarios")
	count := flag.Int("count", 10, "Number of test segments to sample with -dataset")
	maxSize := flag.Int("max-size", sqlite.DefaultMaxSegmentSize, "Maximum sentences per sampled segment")
	tolerance := flag.Int("tolerance", 0, "Boundary match tolerance in sentences")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.HasOracleCredentials() {
		log.Fatal("OPENAI_API_KEY or OPENAI_BASE_URL is required for benchmarks")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	oracle, err := llm.NewOracle(cfg)
	if err != nil {
		log.Fatalf("Failed to create oracle: %v", err)
	}
	prompt, err := core.PromptByName(cfg.Prompt)
	if err != nil {
		log.Fatalf("Invalid prompt: %v", err)
	}

	evalCfg := segeval.DefaultConfig()
	evalCfg.Tolerance = *tolerance

	runner, err := segeval.NewBenchmarkRunner(oracle, evalCfg, *verbose,
		core.WithWindowSize(cfg.WindowSize),
		core.WithPrompt(prompt),
		core.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Print header
	fmt.Println("========================================")
	fmt.Println("Topic Segmentation Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	var results []segeval.TestResult

	switch {
	case *dataset != "":
		results, err = runStored(ctx, runner, cfg, *dataset, *count, *maxSize)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	case *testID == "":
		fmt.Println("Running all segmentation scenarios...")
		fmt.Println()

		results, err = runner.RunAllTests(ctx)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	default:
		scenario, ok := segeval.GetTest(*testID)
		if !ok {
			log.Fatalf("Unknown test ID: %s (valid options: topics, single, meeting)", *testID)
		}

		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatalf("Test failed: %v", err)
		}
		results = []segeval.TestResult{result}
	}

	// Print summary
	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	summary := segeval.Summarize(results)
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Precision: %.2f\n", result.Metrics.Precision)
		fmt.Printf("  Recall: %.2f\n", result.Metrics.Recall)
		fmt.Printf("  F1: %.2f\n", result.Metrics.F1)
		fmt.Printf("  Pk: %.2f\n", result.Metrics.Pk)
		fmt.Printf("  WindowDiff: %.2f\n", result.Metrics.WindowDiff)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.Error != "" {
			fmt.Printf("  Error: %s\n", result.Error)
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("Mean F1: %.2f\n", summary.MeanF1)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	// Exit with error code if any tests failed
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runStored(ctx context.Context, runner *segeval.BenchmarkRunner, cfg *config.Config, dataset string, count, maxSize int) ([]segeval.TestResult, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = sqlite.DefaultDBPath()
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	store, err := sqlite.NewStorage(ctx, db, dataset, sqlite.VariantBase)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Scoring %d test segments from %s...\n\n", count, dataset)
	result, err := runner.RunStored(ctx, store, count, maxSize)
	if err != nil {
		return nil, err
	}
	return []segeval.TestResult{result}, nil
}
