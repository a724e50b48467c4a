// ABOUTME: Sentence storage operations for a dataset table
// ABOUTME: Inserts sentences and whole segments, counts and reads them back
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/topicseg/internal/models"
	"github.com/jmoiron/sqlx"
)

// DefaultMaxSegmentSize caps segment reads when the caller has no tighter bound.
const DefaultMaxSegmentSize = 1000

// SentenceStore handles sentence persistence for one sentence-shaped table
type SentenceStore struct {
	db      *DB
	dataset string
	variant Variant
	table   string
}

// NewSentenceStore binds a store to the dataset variant, creating its table if absent.
func NewSentenceStore(ctx context.Context, db *DB, dataset string, v Variant) (*SentenceStore, error) {
	if v.Shape() != ShapeSentence {
		return nil, fmt.Errorf("%w: variant %q does not hold sentences", models.ErrValidation, v)
	}
	table, err := TableName(dataset, v)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, dataset, v); err != nil {
		return nil, err
	}
	return &SentenceStore{db: db, dataset: dataset, variant: v, table: table}, nil
}

// Dataset returns the dataset identity the store is bound to
func (s *SentenceStore) Dataset() string { return s.dataset }

// Table returns the backing table name
func (s *SentenceStore) Table() string { return s.table }

// Variant returns the table variant the store is bound to
func (s *SentenceStore) Variant() Variant { return s.variant }

// Insert appends one sentence and returns its id.
// A target sentence must have no parent; a dependent must name an existing target.
func (s *SentenceStore) Insert(ctx context.Context, text string, isTarget bool, parentID *int64, sequence int) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: sentence text is empty", models.ErrValidation)
	}
	if sequence < 0 {
		return 0, fmt.Errorf("%w: sequence must be non-negative, got %d", models.ErrValidation, sequence)
	}
	if isTarget && parentID != nil {
		return 0, fmt.Errorf("%w: target sentence cannot have a parent", models.ErrValidation)
	}
	if !isTarget && parentID == nil {
		return 0, fmt.Errorf("%w: non-target sentence requires a parent", models.ErrValidation)
	}
	if isTarget && sequence != 0 {
		return 0, fmt.Errorf("%w: target sentence must have sequence 0, got %d", models.ErrValidation, sequence)
	}
	if !isTarget && sequence < 1 {
		return 0, fmt.Errorf("%w: dependent sentence must have sequence 1 or more, got %d", models.ErrValidation, sequence)
	}

	var id int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if parentID != nil {
			var target int
			err := tx.GetContext(ctx, &target, fmt.Sprintf(`SELECT target FROM %s WHERE id = ?`, s.table), *parentID)
			if err != nil {
				return fmt.Errorf("look up parent %d: %w", *parentID, classify(err))
			}
			if target != 1 {
				return fmt.Errorf("%w: parent %d is not a target sentence", models.ErrValidation, *parentID)
			}
		}
		var err error
		id, err = insertSentence(ctx, tx, s.table, text, isTarget, parentID, sequence)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertSegment atomically stores a target sentence followed by its dependents
// in input order and returns the target id. An empty list is rejected before any I/O.
func (s *SentenceStore) InsertSegment(ctx context.Context, texts []string) (int64, error) {
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: segment has no sentences", models.ErrValidation)
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return 0, fmt.Errorf("%w: sentence %d of segment is empty", models.ErrValidation, i)
		}
	}

	var targetID int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		targetID, err = insertSentence(ctx, tx, s.table, texts[0], true, nil, 0)
		if err != nil {
			return err
		}
		for i, text := range texts[1:] {
			if _, err := insertSentence(ctx, tx, s.table, text, false, &targetID, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return targetID, nil
}

func insertSentence(ctx context.Context, tx *sqlx.Tx, table, text string, isTarget bool, parentID *int64, sequence int) (int64, error) {
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (sentence, target, parent, sequence) VALUES (?, ?, ?, ?)`, table),
		text, boolToInt(isTarget), parentID, sequence)
	if err != nil {
		return 0, fmt.Errorf("insert sentence: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert sentence: %w", err)
	}
	return id, nil
}

// Count returns the number of stored sentences
func (s *SentenceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// CountTargets returns the number of stored segments
func (s *SentenceStore) CountTargets(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE target = 1`, s.table)); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// Segment returns the target row plus up to maxSize-1 dependents ordered by sequence.
// Longer segments are truncated; an unknown id yields an empty segment.
func (s *SentenceStore) Segment(ctx context.Context, targetID int64, maxSize int) (models.Segment, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max segment size must be positive, got %d", models.ErrValidation, maxSize)
	}
	var rows []models.Sentence
	err := s.db.conn.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, sentence, target, parent, sequence
		FROM %s
		WHERE id = ? OR parent = ?
		ORDER BY sequence ASC, id ASC
		LIMIT ?`, s.table), targetID, targetID, maxSize)
	if err != nil {
		return nil, classify(err)
	}
	return models.Segment(rows), nil
}

// Targets returns every target sentence in insertion order
func (s *SentenceStore) Targets(ctx context.Context) ([]models.Sentence, error) {
	var rows []models.Sentence
	err := s.db.conn.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, sentence, target, parent, sequence
		FROM %s
		WHERE target = 1
		ORDER BY id ASC`, s.table))
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// TargetIDs returns the ids of every target sentence in insertion order
func (s *SentenceStore) TargetIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.conn.SelectContext(ctx, &ids, fmt.Sprintf(`SELECT id FROM %s WHERE target = 1 ORDER BY id ASC`, s.table))
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// All returns every sentence ordered by id
func (s *SentenceStore) All(ctx context.Context) ([]models.Sentence, error) {
	var rows []models.Sentence
	err := s.db.conn.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, sentence, target, parent, sequence
		FROM %s
		ORDER BY id ASC`, s.table))
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Get returns one sentence by id
func (s *SentenceStore) Get(ctx context.Context, id int64) (models.Sentence, error) {
	var row models.Sentence
	err := s.db.conn.GetContext(ctx, &row, fmt.Sprintf(`
		SELECT id, sentence, target, parent, sequence
		FROM %s
		WHERE id = ?`, s.table), id)
	if err != nil {
		return models.Sentence{}, classify(err)
	}
	return row, nil
}
