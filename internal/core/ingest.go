// ABOUTME: Ingestor runs the segmenter over a sentence list and stores each closed segment
// ABOUTME: Segments are committed as soon as the next boundary closes them
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

// IngestResult describes one ingestion run.
type IngestResult struct {
	RunID      string  `json:"run_id"`
	Result     Result  `json:"result"`
	SegmentIDs []int64 `json:"segment_ids"`
	// Pending holds every sentence of the failing run that was decided but
	// not stored, in input order.
	Pending []string `json:"pending,omitempty"`
}

// Ingestor connects a Segmenter to a sentence table.
type Ingestor struct {
	segmenter *Segmenter
	store     *sqlite.SentenceStore
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor writing into store.
func NewIngestor(segmenter *Segmenter, store *sqlite.SentenceStore, opts ...Option) (*Ingestor, error) {
	if segmenter == nil || store == nil {
		return nil, fmt.Errorf("%w: segmenter and store are required", models.ErrValidation)
	}
	cfg := newConfig(opts)
	return &Ingestor{segmenter: segmenter, store: store, logger: cfg.logger}, nil
}

// Ingest segments sentences and stores every segment. The first sentence always
// opens a segment. If the oracle fails, segments closed before the failing
// sentence stay committed and the error is returned with the partial result.
func (in *Ingestor) Ingest(ctx context.Context, sentences []string) (IngestResult, error) {
	res := IngestResult{RunID: uuid.NewString()}
	if len(sentences) == 0 {
		return res, fmt.Errorf("%w: no sentences to ingest", models.ErrValidation)
	}
	log := in.logger.With("run_id", res.RunID, "table", in.store.Table())

	flush := func(segment []string) error {
		id, err := in.store.InsertSegment(ctx, segment)
		if err != nil {
			return fmt.Errorf("store segment: %w", err)
		}
		res.SegmentIDs = append(res.SegmentIDs, id)
		log.Debug("stored segment", "target_id", id, "sentences", len(segment))
		return nil
	}

	in.segmenter.Reset()
	var open []string
	for i, sentence := range sentences {
		d, err := in.segmenter.Decide(ctx, sentence)
		if err != nil {
			res.Pending = open
			log.Error("segmentation halted", "sentence", i, "error", err)
			return res, fmt.Errorf("sentence %d: %w", i, err)
		}
		res.Result.Decisions = append(res.Result.Decisions, d)

		if i == 0 || d.Continues {
			open = append(open, sentence)
			continue
		}
		if err := flush(open); err != nil {
			res.Pending = append(open, sentence)
			log.Error("segmentation halted", "sentence", i, "error", err)
			return res, fmt.Errorf("sentence %d opened a segment: %w", i, err)
		}
		open = []string{sentence}
	}
	if err := flush(open); err != nil {
		res.Pending = open
		return res, err
	}

	log.Info("ingested sentences", "sentences", len(sentences), "segments", len(res.SegmentIDs))
	return res, nil
}
