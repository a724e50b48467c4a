// ABOUTME: CLI command to import a gold-labeled corpus into a dataset
// ABOUTME: Stores each labeled segment directly without consulting the oracle
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/corpus"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

var (
	importDataset string
	importVariant string
)

// importSummary reports what an import stored
type importSummary struct {
	Dataset    string  `json:"dataset" yaml:"dataset"`
	Table      string  `json:"table" yaml:"table"`
	Source     string  `json:"source" yaml:"source"`
	Sentences  int     `json:"sentences" yaml:"sentences"`
	SegmentIDs []int64 `json:"segment_ids,omitempty" yaml:"segment_ids,omitempty"`
	// Augmented counts rows stored by an augmented-variant import.
	Augmented int `json:"augmented,omitempty" yaml:"augmented,omitempty"`
}

// NewImportCmd creates the import command
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a labeled corpus into a dataset",
		Long: `Import a gold-segmented corpus into a dataset.

The file must be JSON Lines with one {"sentence": ..., "target": bool}
record per line. A true target opens a new segment. Segments are stored
in file order so they can later be split and sampled.

With --variant augmented, gta1 or gta2 the file instead holds one
{"augmented_sentence": ..., "sentence_id": id, "target": bool,
"sequence": n} record per line, where sentence_id names a sentence
already stored in the dataset's base table.

Examples:
  topicseg import city.jsonl --dataset city
  topicseg import held_out.jsonl --dataset committee --variant test
  topicseg import paraphrases.jsonl --dataset committee --variant gta1`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringVar(&importDataset, "dataset", "", "Dataset to import into (required)")
	cmd.Flags().StringVar(&importVariant, "variant", "base", "Dataset table variant: base, test, validation, augmented, gta1, gta2")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	variant, err := sqlite.ParseVariant(importVariant)
	if err != nil {
		return err
	}
	switch variant.Shape() {
	case sqlite.ShapeAugmented:
		return importAugmented(cmd, cfg, args[0], variant)
	case sqlite.ShapeSplit:
		return fmt.Errorf("split assignments are generated with 'topicseg split', not imported")
	}

	doc, err := readDocument(cmd, args)
	if err != nil {
		return err
	}
	if !doc.Labeled() {
		return fmt.Errorf("%s has no target flags; use 'topicseg segment --dataset' for unlabeled text", doc.Source)
	}

	db, store, err := openStorage(cmd.Context(), cfg, importDataset, variant)
	if err != nil {
		return err
	}
	defer db.Close()

	summary := importSummary{
		Dataset:   importDataset,
		Table:     store.Sentences.Table(),
		Source:    doc.Source,
		Sentences: len(doc.Sentences),
	}
	for _, segment := range doc.Segments() {
		id, err := store.Sentences.InsertSegment(cmd.Context(), segment)
		if err != nil {
			return fmt.Errorf("storing segment %d: %w", len(summary.SegmentIDs)+1, err)
		}
		summary.SegmentIDs = append(summary.SegmentIDs, id)
	}

	if structuredFormat() {
		return writeStructured(cmd.OutOrStdout(), summary)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d sentence(s) as %d segment(s) into %s\n",
			summary.Sentences, len(summary.SegmentIDs), summary.Table)
	}
	return nil
}

func importAugmented(cmd *cobra.Command, cfg *config.Config, path string, variant sqlite.Variant) error {
	rows, err := corpus.LoadAugmented(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	db, store, err := openStorage(cmd.Context(), cfg, importDataset, sqlite.VariantBase)
	if err != nil {
		return err
	}
	defer db.Close()

	augmented, err := store.Augmented(cmd.Context(), variant)
	if err != nil {
		return err
	}
	summary := importSummary{
		Dataset: importDataset,
		Table:   augmented.Table(),
		Source:  path,
	}
	for i, row := range rows {
		if _, err := augmented.Insert(cmd.Context(), row); err != nil {
			return fmt.Errorf("storing augmented sentence %d: %w", i+1, err)
		}
		summary.Augmented++
	}

	if structuredFormat() {
		return writeStructured(cmd.OutOrStdout(), summary)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d augmented sentence(s) into %s\n",
			summary.Augmented, summary.Table)
	}
	return nil
}
