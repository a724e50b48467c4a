// ABOUTME: Sampler reconstructs evaluation segments from stored sentences and splits
// ABOUTME: Supports real segments, fixed-length synthetic segments, and full-table partitioning
package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

// Sampler draws segments for one dataset.
type Sampler struct {
	store  *sqlite.Storage
	logger *slog.Logger
}

// NewSampler creates a Sampler over store.
func NewSampler(store *sqlite.Storage, opts ...Option) *Sampler {
	cfg := newConfig(opts)
	return &Sampler{store: store, logger: cfg.logger}
}

// RandomTargetIDs returns up to count target ids assigned to label, in the random
// order the split table yields them. Repeated calls may return different orders.
func (s *Sampler) RandomTargetIDs(ctx context.Context, label models.SplitLabel, count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be non-negative, got %d", models.ErrValidation, count)
	}
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown split label %q", models.ErrValidation, label)
	}
	ids, err := s.store.Splits.IDs(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", label, err)
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

// RandomSegments samples count segments from label. Real segments are truncated
// to maxSize sentences. Synthetic mode re-chunks each full segment into pieces of
// maxSize sentences whose first sentence is always flagged as a target.
func (s *Sampler) RandomSegments(ctx context.Context, label models.SplitLabel, count, maxSize int, synthetic bool) ([]models.Segment, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max segment size must be positive, got %d", models.ErrValidation, maxSize)
	}
	ids, err := s.RandomTargetIDs(ctx, label, count)
	if err != nil {
		return nil, err
	}

	var segments []models.Segment
	for _, id := range ids {
		fetch := maxSize
		if synthetic {
			fetch = sqlite.DefaultMaxSegmentSize
		}
		seg, err := s.store.Sentences.Segment(ctx, id, fetch)
		if err != nil {
			return nil, fmt.Errorf("fetch segment %d: %w", id, err)
		}
		if len(seg) == 0 {
			s.logger.Warn("split references a missing segment", "segment_id", id)
			continue
		}
		if synthetic {
			segments = append(segments, Rechunk(seg, maxSize)...)
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// RandomSegmentsByFraction samples floor(fraction * targets) segments, where
// targets counts every target sentence in the dataset.
func (s *Sampler) RandomSegmentsByFraction(ctx context.Context, label models.SplitLabel, fraction float64, maxSize int, synthetic bool) ([]models.Segment, error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, fmt.Errorf("%w: fraction must be within [0, 1], got %v", models.ErrValidation, fraction)
	}
	total, err := s.store.Sentences.CountTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("count targets: %w", err)
	}
	count := int(math.Floor(fraction * float64(total)))
	return s.RandomSegments(ctx, label, count, maxSize, synthetic)
}

// AllSegments partitions the whole sentence table into segments in id order.
func (s *Sampler) AllSegments(ctx context.Context) ([]models.Segment, error) {
	rows, err := s.store.Sentences.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sentences: %w", err)
	}
	segments, orphans := PartitionSegments(rows)
	if orphans > 0 {
		s.logger.Warn("sentences precede the first target",
			"dataset", s.store.Dataset(), "count", orphans)
	}
	return segments, nil
}

// PartitionSegments starts a new segment at every target row. Non-target rows
// ahead of the first target form their own leading segment; their count is returned.
func PartitionSegments(rows []models.Sentence) ([]models.Segment, int) {
	var (
		segments []models.Segment
		orphans  int
	)
	for _, row := range rows {
		if row.IsTarget || len(segments) == 0 {
			segments = append(segments, models.Segment{row})
		} else {
			last := len(segments) - 1
			segments[last] = append(segments[last], row)
		}
		if len(segments) == 1 && !segments[0][0].IsTarget {
			orphans++
		}
	}
	return segments, orphans
}

// Rechunk splits seg into consecutive pieces of size sentences. The first
// sentence of each piece is flagged as a target and the final piece may be shorter.
func Rechunk(seg models.Segment, size int) []models.Segment {
	if size <= 0 || len(seg) == 0 {
		return nil
	}
	chunks := make([]models.Segment, 0, (len(seg)+size-1)/size)
	for start := 0; start < len(seg); start += size {
		end := min(start+size, len(seg))
		chunk := append(models.Segment(nil), seg[start:end]...)
		chunk[0].IsTarget = true
		chunks = append(chunks, chunk)
	}
	return chunks
}
