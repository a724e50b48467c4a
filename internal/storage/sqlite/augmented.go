// ABOUTME: Augmented sentence storage for the gpt_augmented, gta1 and gta2 variants
// ABOUTME: Each row is a model-generated alternative linked to a base sentence
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/topicseg/internal/models"
)

// AugmentedStore handles augmented sentence persistence
type AugmentedStore struct {
	db       *DB
	table    string
	fkColumn string
}

// NewAugmentedStore binds a store to an augmented variant, creating its table if absent.
func NewAugmentedStore(ctx context.Context, db *DB, dataset string, v Variant) (*AugmentedStore, error) {
	if v.Shape() != ShapeAugmented {
		return nil, fmt.Errorf("%w: variant %q does not hold augmented sentences", models.ErrValidation, v)
	}
	base, err := BaseTable(dataset)
	if err != nil {
		return nil, err
	}
	table, err := TableName(dataset, v)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, dataset, v); err != nil {
		return nil, err
	}
	return &AugmentedStore{db: db, table: table, fkColumn: foreignKeyColumn(base)}, nil
}

// Table returns the backing table name
func (s *AugmentedStore) Table() string { return s.table }

// Insert stores an augmented sentence for the referenced base sentence
func (s *AugmentedStore) Insert(ctx context.Context, aug models.AugmentedSentence) (int64, error) {
	if strings.TrimSpace(aug.Text) == "" {
		return 0, fmt.Errorf("%w: augmented sentence text is empty", models.ErrValidation)
	}
	if aug.Sequence < 0 {
		return 0, fmt.Errorf("%w: sequence must be non-negative, got %d", models.ErrValidation, aug.Sequence)
	}
	res, err := s.db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (augmented_sentence, target, sequence, %s)
		VALUES (?, ?, ?, ?)`, s.table, s.fkColumn),
		aug.Text, boolToInt(aug.IsTarget), aug.Sequence, aug.SentenceID)
	if err != nil {
		return 0, fmt.Errorf("insert augmented sentence: %w", classify(err))
	}
	return res.LastInsertId()
}

// ForSentence returns the augmentations of a base sentence ordered by sequence
func (s *AugmentedStore) ForSentence(ctx context.Context, sentenceID int64) ([]models.AugmentedSentence, error) {
	var rows []models.AugmentedSentence
	err := s.db.conn.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, augmented_sentence, target, %s AS sentence_id, sequence
		FROM %s
		WHERE %s = ?
		ORDER BY sequence ASC, id ASC`, s.fkColumn, s.table, s.fkColumn), sentenceID)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// All returns every augmentation grouped by base sentence, each group ordered by sequence
func (s *AugmentedStore) All(ctx context.Context) ([]models.AugmentedSentence, error) {
	var rows []models.AugmentedSentence
	err := s.db.conn.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, augmented_sentence, target, %s AS sentence_id, sequence
		FROM %s
		ORDER BY %s ASC, sequence ASC, id ASC`, s.fkColumn, s.table, s.fkColumn))
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Count returns the number of stored augmentations
func (s *AugmentedStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)); err != nil {
		return 0, classify(err)
	}
	return n, nil
}
