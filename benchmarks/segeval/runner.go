// ABOUTME: Benchmark runner - segments labeled scenarios and scores the predictions
// ABOUTME: Scenarios come from built-in fixtures or from sampled test-split segments

package segeval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

// TestResult is the outcome of one scenario.
type TestResult struct {
	TestID    string        `json:"test_id"`
	TestName  string        `json:"test_name"`
	Sentences int           `json:"sentences"`
	Predicted []bool        `json:"predicted"`
	Expected  []bool        `json:"expected"`
	Metrics   Metrics       `json:"metrics"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// BenchmarkRunner executes segmentation benchmarks
type BenchmarkRunner struct {
	segmenter *core.Segmenter
	cfg       Config
	verbose   bool
	out       io.Writer
}

// NewBenchmarkRunner creates a runner that queries oracle for every decision
func NewBenchmarkRunner(oracle core.Oracle, cfg Config, verbose bool, opts ...core.Option) (*BenchmarkRunner, error) {
	segmenter, err := core.NewSegmenter(oracle, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize segmenter: %w", err)
	}
	return &BenchmarkRunner{
		segmenter: segmenter,
		cfg:       cfg,
		verbose:   verbose,
		out:       os.Stdout,
	}, nil
}

// SetOutput redirects verbose progress output
func (r *BenchmarkRunner) SetOutput(w io.Writer) {
	r.out = w
}

// RunTest segments one scenario and scores it
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if len(scenario.Sentences) != len(scenario.Labels) {
		return TestResult{}, fmt.Errorf("%w: scenario %s has %d sentences and %d labels",
			models.ErrValidation, scenario.ID, len(scenario.Sentences), len(scenario.Labels))
	}

	if r.verbose {
		fmt.Fprintf(r.out, "\n=== %s: %s ===\n", scenario.ID, scenario.Name)
		fmt.Fprintf(r.out, "%s (%d sentences)\n", scenario.Description, len(scenario.Sentences))
	}

	start := time.Now()
	result := TestResult{
		TestID:    scenario.ID,
		TestName:  scenario.Name,
		Sentences: len(scenario.Sentences),
		Expected:  scenario.Labels,
	}

	prediction, err := r.segmenter.Predict(ctx, scenario.Sentences)
	result.Duration = time.Since(start)
	result.Predicted = prediction.Labels()
	if err != nil {
		// Partial predictions are still scored up to the failing sentence.
		result.Error = err.Error()
		result.Status = "ERROR"
		result.Metrics = EvaluateLabels(result.Predicted, scenario.Labels, r.cfg)
		return result, nil
	}

	result.Metrics = EvaluateLabels(result.Predicted, scenario.Labels, r.cfg)
	if result.Metrics.F1 >= r.cfg.PassF1 {
		result.Status = "PASS"
	} else {
		result.Status = "FAIL"
	}

	if r.verbose {
		for i, sentence := range scenario.Sentences {
			marker := "  "
			if i < len(result.Predicted) && result.Predicted[i] {
				marker = "| "
			}
			fmt.Fprintf(r.out, "%s%2d %s\n", marker, i+1, sentence)
		}
		fmt.Fprintf(r.out, "F1 %.2f  Pk %.2f  WindowDiff %.2f  [%s]\n",
			result.Metrics.F1, result.Metrics.Pk, result.Metrics.WindowDiff, result.Status)
	}

	return result, nil
}

// RunAllTests executes all built-in scenarios
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// RunStored samples count test-split segments from the dataset and scores them as one sequence
func (r *BenchmarkRunner) RunStored(ctx context.Context, store *sqlite.Storage, count, maxSize int) (TestResult, error) {
	sampler := core.NewSampler(store)
	segments, err := sampler.RandomSegments(ctx, models.SplitTest, count, maxSize, false)
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to sample test segments: %w", err)
	}
	if len(segments) == 0 {
		return TestResult{}, fmt.Errorf("%w: dataset %s has no test segments", models.ErrNotFound, store.Dataset())
	}
	scenario := ScenarioFromSegments(store.Dataset(), fmt.Sprintf("%s test split", store.Dataset()), segments)
	return r.RunTest(ctx, scenario)
}

// Summary aggregates a set of results.
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	MeanF1     float64      `json:"mean_f1"`
	MeanPk     float64      `json:"mean_pk"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and averages the headline metrics
func Summarize(results []TestResult) Summary {
	summary := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.MeanF1 += result.Metrics.F1
		summary.MeanPk += result.Metrics.Pk
	}
	if len(results) > 0 {
		summary.MeanF1 /= float64(len(results))
		summary.MeanPk /= float64(len(results))
	}
	return summary
}

// ExportResults exports test results to JSON
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Fprintf(r.out, "✓ Results exported to: %s\n", outputPath)
	return nil
}
