// ABOUTME: Per-dataset table variants, table naming, and idempotent DDL
// ABOUTME: One variant descriptor drives every table shape instead of a type per table
package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/harper/topicseg/internal/models"
	"github.com/jmoiron/sqlx"
)

// Schema contains the dataset-independent tables created on open
const Schema = `
-- Retrieval passages with their embedding vectors
CREATE TABLE IF NOT EXISTS embeddings (
    id TEXT PRIMARY KEY,
    source_id TEXT,
    content TEXT NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_embeddings_source ON embeddings(source_id);
`

// Shape is the column layout of a table variant.
type Shape int

const (
	// ShapeSentence is (id, sentence, target, parent, sequence).
	ShapeSentence Shape = iota
	// ShapeAugmented is (id, augmented_sentence, target, <base>_id, sequence).
	ShapeAugmented
	// ShapeSplit is (id, segment_id, type).
	ShapeSplit
)

// Variant selects which table of a dataset an operation targets.
type Variant string

const (
	VariantBase       Variant = "base"
	VariantAugmented  Variant = "augmented"
	VariantGTA1       Variant = "gta1"
	VariantGTA2       Variant = "gta2"
	VariantTest       Variant = "test"
	VariantValidation Variant = "validation"
	VariantTrainTest  Variant = "train_test"
)

type variantSpec struct {
	suffix string
	shape  Shape
}

var variants = map[Variant]variantSpec{
	VariantBase:       {"", ShapeSentence},
	VariantAugmented:  {"_gpt_augmented", ShapeAugmented},
	VariantGTA1:       {"_gta1", ShapeAugmented},
	VariantGTA2:       {"_gta2", ShapeAugmented},
	VariantTest:       {"_test", ShapeSentence},
	VariantValidation: {"_validation", ShapeSentence},
	VariantTrainTest:  {"_train_test", ShapeSplit},
}

// ParseVariant converts a name into a Variant. An empty name is the base table.
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return VariantBase, nil
	}
	v := Variant(name)
	if _, ok := variants[v]; !ok {
		return "", fmt.Errorf("%w: unknown table variant %q", models.ErrValidation, name)
	}
	return v, nil
}

// Shape returns the column layout of the variant.
func (v Variant) Shape() Shape {
	return variants[v].shape
}

var datasetPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// BaseTable maps a dataset identity onto its base table name.
// WikiSection and QMSum corpora carry their collection prefix.
func BaseTable(dataset string) (string, error) {
	if !datasetPattern.MatchString(dataset) {
		return "", fmt.Errorf("%w: invalid dataset name %q", models.ErrValidation, dataset)
	}
	switch dataset {
	case "city", "disease":
		return "wikisection_" + dataset, nil
	case "academic", "product", "committee":
		return "qmsum_" + dataset, nil
	}
	return dataset, nil
}

// TableName returns the table backing the dataset variant.
func TableName(dataset string, v Variant) (string, error) {
	base, err := BaseTable(dataset)
	if err != nil {
		return "", err
	}
	spec, ok := variants[v]
	if !ok {
		return "", fmt.Errorf("%w: unknown table variant %q", models.ErrValidation, v)
	}
	return base + spec.suffix, nil
}

// foreignKeyColumn is the augmented-table column referencing the base table.
func foreignKeyColumn(base string) string {
	return base + "_id"
}

func schemaStatements(dataset string, v Variant) ([]string, error) {
	base, err := BaseTable(dataset)
	if err != nil {
		return nil, err
	}
	table, err := TableName(dataset, v)
	if err != nil {
		return nil, err
	}

	switch v.Shape() {
	case ShapeSentence:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    sentence TEXT NOT NULL,
    target INTEGER NOT NULL,
    parent INTEGER,
    sequence INTEGER NOT NULL
)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_parent ON %s(parent)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_target ON %s(target)`, table, table),
		}, nil
	case ShapeAugmented:
		fk := foreignKeyColumn(base)
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    augmented_sentence TEXT NOT NULL,
    target INTEGER NOT NULL,
    %s INTEGER NOT NULL,
    sequence INTEGER NOT NULL,
    FOREIGN KEY (%s) REFERENCES %s (id)
)`, table, fk, fk, base),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sentence ON %s(%s)`, table, table, fk),
		}, nil
	case ShapeSplit:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    segment_id INTEGER NOT NULL,
    type TEXT NOT NULL,
    FOREIGN KEY (segment_id) REFERENCES %s (id)
)`, table, base),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_type ON %s(type)`, table, table),
		}, nil
	}
	return nil, fmt.Errorf("%w: variant %q has no schema", models.ErrSchema, v)
}

// EnsureSchema creates the tables backing the dataset variant if absent.
// Variants holding foreign keys also create the base table they reference.
// Existing tables and rows are left untouched.
func (db *DB) EnsureSchema(ctx context.Context, dataset string, v Variant) error {
	var stmts []string
	if v != VariantBase && v.Shape() != ShapeSentence {
		baseStmts, err := schemaStatements(dataset, VariantBase)
		if err != nil {
			return err
		}
		stmts = append(stmts, baseStmts...)
	}
	own, err := schemaStatements(dataset, v)
	if err != nil {
		return err
	}
	stmts = append(stmts, own...)

	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%w: execute schema statement %d: %w", models.ErrSchema, i+1, err)
			}
		}
		return nil
	})
}
