// ABOUTME: Boundary scoring for predicted segmentations against stored target flags
// ABOUTME: Tolerance-matched precision/recall/F1 plus the Pk and WindowDiff error rates
package segeval

import "math"

// Config holds evaluation parameters.
type Config struct {
	Tolerance       int // sentence match tolerance
	PrecisionWeight float64
	RecallWeight    float64
	// PassF1 is the minimum F1 for a scenario to PASS.
	PassF1 float64
}

// DefaultConfig returns the default evaluation configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance:       0,
		PrecisionWeight: 1.0,
		RecallWeight:    1.0,
		PassF1:          0.5,
	}
}

// Metrics holds evaluation results for one labeled sequence.
type Metrics struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	WeightedScore  float64 `json:"weighted_score"`
	Pk             float64 `json:"pk"`
	WindowDiff     float64 `json:"window_diff"`
}

// BoundaryPositions returns the indices of every segment start after the first sentence.
// Index 0 always opens a segment and carries no information, so it is skipped.
func BoundaryPositions(labels []bool) []int {
	var positions []int
	for i := 1; i < len(labels); i++ {
		if labels[i] {
			positions = append(positions, i)
		}
	}
	return positions
}

// Evaluate compares predicted boundaries against ground truth.
// Uses greedy left-to-right matching within tolerance.
func Evaluate(predicted, truth []int, cfg Config) Metrics {
	matched := make([]bool, len(truth))
	tp := 0

	for _, p := range predicted {
		for i, t := range truth {
			if matched[i] {
				continue
			}
			diff := p - t
			if diff < 0 {
				diff = -diff
			}
			if diff <= cfg.Tolerance {
				matched[i] = true
				tp++
				break
			}
		}
	}

	m := Metrics{
		TruePositives:  tp,
		FalsePositives: len(predicted) - tp,
		FalseNegatives: len(truth) - tp,
	}

	if len(predicted) == 0 && len(truth) == 0 {
		// Nothing to find and nothing claimed.
		m.Precision, m.Recall, m.F1 = 1, 1, 1
	} else {
		if tp+m.FalsePositives > 0 {
			m.Precision = float64(tp) / float64(tp+m.FalsePositives)
		}
		if tp+m.FalseNegatives > 0 {
			m.Recall = float64(tp) / float64(tp+m.FalseNegatives)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
	}

	wp := cfg.PrecisionWeight
	wr := cfg.RecallWeight
	if wp+wr > 0 {
		m.WeightedScore = (wp*m.Precision + wr*m.Recall) / (wp + wr)
	}

	return m
}

// EvaluateLabels scores a predicted label sequence against the reference labels.
// Both slices must describe the same sentences; the shorter length is used otherwise.
func EvaluateLabels(predicted, truth []bool, cfg Config) Metrics {
	n := min(len(predicted), len(truth))
	predicted, truth = predicted[:n], truth[:n]

	m := Evaluate(BoundaryPositions(predicted), BoundaryPositions(truth), cfg)
	k := WindowSize(truth)
	m.Pk = Pk(predicted, truth, k)
	m.WindowDiff = WindowDiff(predicted, truth, k)
	return m
}

// WindowSize returns half the mean reference segment length, rounded, at least 1.
func WindowSize(truth []bool) int {
	segments := 0
	for i, label := range truth {
		if label || i == 0 {
			segments++
		}
	}
	if segments == 0 {
		return 1
	}
	k := int(math.Round(float64(len(truth)) / float64(segments) / 2))
	return max(k, 1)
}

// Pk is the probability that two sentences k apart are inconsistently judged
// as belonging to the same segment. Lower is better.
func Pk(predicted, truth []bool, k int) float64 {
	n := min(len(predicted), len(truth))
	if k < 1 || n <= k {
		return 0
	}
	refIDs := segmentIDs(truth[:n])
	hypIDs := segmentIDs(predicted[:n])

	errs := 0
	windows := n - k
	for i := 0; i < windows; i++ {
		sameRef := refIDs[i] == refIDs[i+k]
		sameHyp := hypIDs[i] == hypIDs[i+k]
		if sameRef != sameHyp {
			errs++
		}
	}
	return float64(errs) / float64(windows)
}

// WindowDiff counts windows of k sentences whose boundary counts disagree. Lower is better.
func WindowDiff(predicted, truth []bool, k int) float64 {
	n := min(len(predicted), len(truth))
	if k < 1 || n <= k {
		return 0
	}
	errs := 0
	windows := n - k
	for i := 0; i < windows; i++ {
		if countBoundaries(truth, i, i+k) != countBoundaries(predicted, i, i+k) {
			errs++
		}
	}
	return float64(errs) / float64(windows)
}

// segmentIDs numbers each sentence with the ordinal of the segment it falls in.
func segmentIDs(labels []bool) []int {
	ids := make([]int, len(labels))
	current := 0
	for i, label := range labels {
		if label && i > 0 {
			current++
		}
		ids[i] = current
	}
	return ids
}

// countBoundaries counts segment starts in (from, to].
func countBoundaries(labels []bool, from, to int) int {
	count := 0
	for i := from + 1; i <= to; i++ {
		if labels[i] {
			count++
		}
	}
	return count
}
