// ABOUTME: Dataset-scoped storage facade over the sentence and split stores
// ABOUTME: Constructed explicitly from an open DB; owns no global connection state
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/topicseg/internal/models"
)

// Storage groups the stores of one dataset over a shared connection
type Storage struct {
	db         *DB
	dataset    string
	Sentences  *SentenceStore
	Splits     *SplitStore
	Embeddings *EmbeddingStore
}

// Stats summarizes a dataset's stored rows and split sizes
type Stats struct {
	Dataset    string `json:"dataset" yaml:"dataset"`
	Table      string `json:"table" yaml:"table"`
	Sentences  int    `json:"sentences" yaml:"sentences"`
	Segments   int    `json:"segments" yaml:"segments"`
	Train      int    `json:"train" yaml:"train"`
	Test       int    `json:"test" yaml:"test"`
	Validation int    `json:"validation" yaml:"validation"`
}

// NewStorage binds storage to a dataset variant, creating its tables if absent.
func NewStorage(ctx context.Context, db *DB, dataset string, v Variant) (*Storage, error) {
	sentences, err := NewSentenceStore(ctx, db, dataset, v)
	if err != nil {
		return nil, fmt.Errorf("sentence store: %w", err)
	}
	splits, err := NewSplitStore(ctx, db, dataset)
	if err != nil {
		return nil, fmt.Errorf("split store: %w", err)
	}
	return &Storage{
		db:         db,
		dataset:    dataset,
		Sentences:  sentences,
		Splits:     splits,
		Embeddings: NewEmbeddingStore(db),
	}, nil
}

// Dataset returns the dataset identity
func (s *Storage) Dataset() string { return s.dataset }

// Augmented opens the augmented variant v of the bound dataset
func (s *Storage) Augmented(ctx context.Context, v Variant) (*AugmentedStore, error) {
	return NewAugmentedStore(ctx, s.db, s.dataset, v)
}

// Stats counts sentences, segments, and split assignments
func (s *Storage) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Dataset: s.dataset, Table: s.Sentences.Table()}
	var err error
	if st.Sentences, err = s.Sentences.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count sentences: %w", err)
	}
	if st.Segments, err = s.Sentences.CountTargets(ctx); err != nil {
		return Stats{}, fmt.Errorf("count segments: %w", err)
	}
	counts := map[models.SplitLabel]*int{
		models.SplitTrain:      &st.Train,
		models.SplitTest:       &st.Test,
		models.SplitValidation: &st.Validation,
	}
	for label, dst := range counts {
		if *dst, err = s.Splits.Count(ctx, label); err != nil {
			return Stats{}, fmt.Errorf("count %s split: %w", label, err)
		}
	}
	return st, nil
}
