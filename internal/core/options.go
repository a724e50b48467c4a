// ABOUTME: Functional options shared by the segmenter, splitter, sampler and ingestor
// ABOUTME: Each component reads only the settings that apply to it
package core

import (
	"log/slog"
	"math/rand/v2"

	"github.com/harper/topicseg/internal/models"
)

const (
	// DefaultWindowSize is how many trailing sentences are sent to the oracle.
	DefaultWindowSize = 5

	// DefaultSplitRatio is the share of targets assigned to the first partition.
	DefaultSplitRatio = 0.75
)

// Option configures a core component.
type Option func(*config)

type config struct {
	windowSize int
	prompt     PromptTemplate
	ratio      float64
	rng        *rand.Rand
	labels     [2]models.SplitLabel
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		windowSize: DefaultWindowSize,
		prompt:     ParagraphPrompt,
		ratio:      DefaultSplitRatio,
		labels:     [2]models.SplitLabel{models.SplitTrain, models.SplitTest},
		logger:     slog.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithWindowSize sets the rolling context window (default: 5).
func WithWindowSize(n int) Option {
	return func(c *config) {
		c.windowSize = n
	}
}

// WithPrompt sets the continuation prompt template (default: ParagraphPrompt).
func WithPrompt(p PromptTemplate) Option {
	return func(c *config) {
		c.prompt = p
	}
}

// WithRatio sets the split ratio (default: 0.75).
func WithRatio(r float64) Option {
	return func(c *config) {
		c.ratio = r
	}
}

// WithSeed makes shuffling deterministic.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithLabels sets the labels written for the first and second partition
// (default: train, test). Augmented corpora use test and validation.
func WithLabels(first, second models.SplitLabel) Option {
	return func(c *config) {
		c.labels = [2]models.SplitLabel{first, second}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
