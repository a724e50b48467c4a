// ABOUTME: Train/test split assignment storage for a dataset
// ABOUTME: Assignments reference target sentences and are replaced wholesale
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/topicseg/internal/models"
	"github.com/jmoiron/sqlx"
)

// SplitStore handles split assignment persistence
type SplitStore struct {
	db      *DB
	dataset string
	table   string
}

// NewSplitStore binds a store to the dataset's split table, creating it if absent.
func NewSplitStore(ctx context.Context, db *DB, dataset string) (*SplitStore, error) {
	table, err := TableName(dataset, VariantTrainTest)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, dataset, VariantTrainTest); err != nil {
		return nil, err
	}
	return &SplitStore{db: db, dataset: dataset, table: table}, nil
}

// Table returns the backing table name
func (s *SplitStore) Table() string { return s.table }

// Insert records one assignment and returns its row id
func (s *SplitStore) Insert(ctx context.Context, segmentID int64, label models.SplitLabel) (int64, error) {
	if !label.Valid() {
		return 0, fmt.Errorf("%w: unknown split label %q", models.ErrValidation, label)
	}
	res, err := s.db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (segment_id, type) VALUES (?, ?)`, s.table), segmentID, string(label))
	if err != nil {
		return 0, fmt.Errorf("insert split assignment: %w", classify(err))
	}
	return res.LastInsertId()
}

// Clear deletes every assignment and returns how many were removed
func (s *SplitStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table))
	if err != nil {
		return 0, fmt.Errorf("clear split assignments: %w", classify(err))
	}
	return res.RowsAffected()
}

// Replace clears all assignments and writes the given ones in a single transaction.
func (s *SplitStore) Replace(ctx context.Context, assignments []models.SplitAssignment) error {
	for _, a := range assignments {
		if !a.Label.Valid() {
			return fmt.Errorf("%w: unknown split label %q", models.ErrValidation, a.Label)
		}
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
			return fmt.Errorf("clear split assignments: %w", classify(err))
		}
		stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`INSERT INTO %s (segment_id, type) VALUES (?, ?)`, s.table))
		if err != nil {
			return fmt.Errorf("prepare split insert: %w", classify(err))
		}
		defer func() { _ = stmt.Close() }()
		for _, a := range assignments {
			if _, err := stmt.ExecContext(ctx, a.SegmentID, string(a.Label)); err != nil {
				return fmt.Errorf("insert split assignment for %d: %w", a.SegmentID, classify(err))
			}
		}
		return nil
	})
}

// IDs returns the target ids assigned to label. Order is random on every call.
func (s *SplitStore) IDs(ctx context.Context, label models.SplitLabel) ([]int64, error) {
	var ids []int64
	err := s.db.conn.SelectContext(ctx, &ids,
		fmt.Sprintf(`SELECT segment_id FROM %s WHERE type = ? ORDER BY RANDOM()`, s.table), string(label))
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// Count returns the number of assignments carrying label
func (s *SplitStore) Count(ctx context.Context, label models.SplitLabel) (int, error) {
	var n int
	err := s.db.conn.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE type = ?`, s.table), string(label))
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// Assignments returns every assignment in insertion order
func (s *SplitStore) Assignments(ctx context.Context) ([]models.SplitAssignment, error) {
	var rows []models.SplitAssignment
	err := s.db.conn.SelectContext(ctx, &rows,
		fmt.Sprintf(`SELECT id, segment_id, type FROM %s ORDER BY id ASC`, s.table))
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}
