// ABOUTME: Export functionality for segmented datasets
// ABOUTME: Writes segments and split assignments as YAML or JSON
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/topicseg/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string          `yaml:"version" json:"version"`
	ExportedAt string          `yaml:"exported_at" json:"exported_at"`
	Tool       string          `yaml:"tool" json:"tool"`
	Dataset    string          `yaml:"dataset" json:"dataset"`
	Table      string          `yaml:"table" json:"table"`
	Segments   []ExportSegment `yaml:"segments" json:"segments"`
	Splits     []ExportSplit   `yaml:"splits,omitempty" json:"splits,omitempty"`
	// Augmentations is filled for base-table exports from every augmented variant present.
	Augmentations []ExportAugmentation `yaml:"augmentations,omitempty" json:"augmentations,omitempty"`
}

// ExportSegment represents one stored segment for export
type ExportSegment struct {
	TargetID  int64    `yaml:"target_id" json:"target_id"`
	Split     string   `yaml:"split,omitempty" json:"split,omitempty"`
	Sentences []string `yaml:"sentences" json:"sentences"`
}

// ExportSplit represents one split assignment for export
type ExportSplit struct {
	SegmentID int64  `yaml:"segment_id" json:"segment_id"`
	Type      string `yaml:"type" json:"type"`
}

// ExportAugmentation is one augmented sentence with the variant it came from
type ExportAugmentation struct {
	Variant    string `yaml:"variant" json:"variant"`
	SentenceID int64  `yaml:"sentence_id" json:"sentence_id"`
	Sequence   int    `yaml:"sequence" json:"sequence"`
	Target     bool   `yaml:"target" json:"target"`
	Sentence   string `yaml:"augmented_sentence" json:"augmented_sentence"`
}

var augmentedVariants = []Variant{VariantAugmented, VariantGTA1, VariantGTA2}

// Export collects every segment of the dataset with its split label
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "topicseg",
		Dataset:    s.dataset,
		Table:      s.Sentences.Table(),
	}

	assignments, err := s.Splits.Assignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list split assignments: %w", err)
	}
	labels := make(map[int64]string, len(assignments))
	for _, a := range assignments {
		labels[a.SegmentID] = string(a.Label)
		data.Splits = append(data.Splits, ExportSplit{SegmentID: a.SegmentID, Type: string(a.Label)})
	}

	rows, err := s.Sentences.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sentences: %w", err)
	}
	for _, row := range rows {
		if row.IsTarget || len(data.Segments) == 0 {
			data.Segments = append(data.Segments, ExportSegment{
				TargetID: row.SegmentID(),
				Split:    labels[row.SegmentID()],
			})
		}
		last := &data.Segments[len(data.Segments)-1]
		last.Sentences = append(last.Sentences, row.Text)
	}

	if s.Sentences.Variant() == VariantBase {
		if err := s.exportAugmentations(ctx, data); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func (s *Storage) exportAugmentations(ctx context.Context, data *ExportData) error {
	for _, v := range augmentedVariants {
		table, err := TableName(s.dataset, v)
		if err != nil {
			return err
		}
		ok, err := s.db.TableExists(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", table, err)
		}
		if !ok {
			continue
		}
		store, err := s.Augmented(ctx, v)
		if err != nil {
			return err
		}
		rows, err := store.All(ctx)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", table, err)
		}
		for _, row := range rows {
			data.Augmentations = append(data.Augmentations, ExportAugmentation{
				Variant:    string(v),
				SentenceID: row.SentenceID,
				Sequence:   row.Sequence,
				Target:     row.IsTarget,
				Sentence:   row.Text,
			})
		}
	}
	return nil
}

// WriteExport encodes data to w in the given format (yaml or json)
func WriteExport(w io.Writer, data *ExportData, format string) error {
	switch format {
	case "yaml", "yml", "":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported export format %q", models.ErrValidation, format)
}

// ExportToFile exports the dataset to outputPath in the given format
func (s *Storage) ExportToFile(ctx context.Context, outputPath, format string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteExport(file, data, format)
}
