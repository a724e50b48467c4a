// ABOUTME: Splitter partitions a dataset's target sentences into train and test sets
// ABOUTME: Regeneration replaces every previous assignment in one transaction
package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

// Split is the outcome of one generation. Train holds the first partition and
// Test the second, whatever labels were configured for them.
type Split struct {
	Train []int64 `json:"train"`
	Test  []int64 `json:"test"`
}

// Splitter generates random split assignments for one dataset.
type Splitter struct {
	store  *sqlite.Storage
	ratio  float64
	rng    *rand.Rand
	labels [2]models.SplitLabel
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSplitter creates a Splitter over store.
func NewSplitter(store *sqlite.Storage, opts ...Option) (*Splitter, error) {
	cfg := newConfig(opts)
	if store == nil {
		return nil, fmt.Errorf("%w: storage is required", models.ErrValidation)
	}
	// Split rows reference the base table, so targets must come from it too.
	if v := store.Sentences.Variant(); v != sqlite.VariantBase {
		return nil, fmt.Errorf("%w: splits are generated from the base table, got variant %q", models.ErrValidation, v)
	}
	if cfg.ratio < 0 || cfg.ratio > 1 {
		return nil, fmt.Errorf("%w: split ratio must be within [0, 1], got %v", models.ErrValidation, cfg.ratio)
	}
	for _, l := range cfg.labels {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: unknown split label %q", models.ErrValidation, l)
		}
	}
	if cfg.labels[0] == cfg.labels[1] {
		return nil, fmt.Errorf("%w: split labels must differ", models.ErrValidation)
	}
	return &Splitter{
		store:  store,
		ratio:  cfg.ratio,
		rng:    cfg.rng,
		labels: cfg.labels,
		logger: cfg.logger,
	}, nil
}

// Ratio returns the share of targets assigned to the first partition.
func (s *Splitter) Ratio() float64 { return s.ratio }

// Generate shuffles every target id and assigns the first floor(ratio*N) to the
// first label and the rest to the second, replacing all prior assignments.
// A dataset without targets yields two empty sets.
func (s *Splitter) Generate(ctx context.Context) (Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.store.Sentences.TargetIDs(ctx)
	if err != nil {
		return Split{}, fmt.Errorf("list targets: %w", err)
	}

	s.shuffle(ids)
	cut := int(s.ratio * float64(len(ids)))

	split := Split{Train: ids[:cut:cut], Test: ids[cut:]}
	if split.Train == nil {
		split.Train = []int64{}
	}
	if split.Test == nil {
		split.Test = []int64{}
	}

	assignments := make([]models.SplitAssignment, 0, len(ids))
	for _, id := range split.Train {
		assignments = append(assignments, models.SplitAssignment{SegmentID: id, Label: s.labels[0]})
	}
	for _, id := range split.Test {
		assignments = append(assignments, models.SplitAssignment{SegmentID: id, Label: s.labels[1]})
	}

	if err := s.store.Splits.Replace(ctx, assignments); err != nil {
		return Split{}, fmt.Errorf("write split assignments: %w", err)
	}

	s.logger.Info("generated split",
		"dataset", s.store.Dataset(),
		string(s.labels[0]), len(split.Train),
		string(s.labels[1]), len(split.Test))
	return split, nil
}

func (s *Splitter) shuffle(ids []int64) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}
