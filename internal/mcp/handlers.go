// ABOUTME: MCP tool handler implementations for the segmentation server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	db     *sqlite.DB
	oracle core.Oracle
	opts   []core.Option
	logger *slog.Logger
	// splitMu serializes split regeneration across requests.
	splitMu sync.Mutex
}

// NewHandlers creates handlers over db. opts configure every segmenter and splitter.
func NewHandlers(db *sqlite.DB, oracle core.Oracle, logger *slog.Logger, opts ...core.Option) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		db:     db,
		oracle: oracle,
		opts:   append([]core.Option{core.WithLogger(logger)}, opts...),
		logger: logger,
	}
}

// SegmentResponse is the segment_text payload.
type SegmentResponse struct {
	RunID      string     `json:"run_id,omitempty"`
	Sentences  int        `json:"sentences"`
	Segments   [][]string `json:"segments"`
	Labels     []bool     `json:"labels"`
	Ambiguous  int        `json:"ambiguous"`
	SegmentIDs []int64    `json:"segment_ids,omitempty"`
}

// SplitResponse is the generate_split payload.
// Train and Test count the first and second partition.
type SplitResponse struct {
	Dataset string   `json:"dataset"`
	Labels  []string `json:"labels"`
	Ratio   float64  `json:"ratio"`
	Train   int      `json:"train"`
	Test    int      `json:"test"`
}

// SampleResponse is the sample_segments payload.
type SampleResponse struct {
	Dataset  string           `json:"dataset"`
	Split    string           `json:"split"`
	Segments []models.Segment `json:"segments"`
}

// SegmentText handles the segment_text tool
func (h *Handlers) SegmentText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	if h.oracle == nil {
		return mcp.NewToolResultError("no oracle configured: set OPENAI_API_KEY or OPENAI_BASE_URL"), nil
	}

	sentences := core.SplitSentences(text)
	if len(sentences) == 0 {
		return mcp.NewToolResultError("text contains no sentences"), nil
	}

	segmenter, err := core.NewSegmenter(h.oracle, h.opts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create segmenter: %v", err)), nil
	}

	var (
		result   core.Result
		response SegmentResponse
	)
	if request.GetBool("store", false) {
		dataset, err := request.RequireString("dataset")
		if err != nil {
			return mcp.NewToolResultError("dataset argument is required when store is true"), nil
		}
		store, err := sqlite.NewStorage(ctx, h.db, dataset, sqlite.VariantBase)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to open dataset: %v", err)), nil
		}
		ingestor, err := core.NewIngestor(segmenter, store.Sentences, h.opts...)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create ingestor: %v", err)), nil
		}
		res, err := ingestor.Ingest(ctx, sentences)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("segmentation failed after %d stored segments: %v", len(res.SegmentIDs), err)), nil
		}
		result = res.Result
		response.RunID = res.RunID
		response.SegmentIDs = res.SegmentIDs
	} else {
		result, err = segmenter.Predict(ctx, sentences)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("segmentation failed: %v", err)), nil
		}
	}

	response.Sentences = len(sentences)
	response.Segments = result.Segments()
	response.Labels = result.Labels()
	for _, d := range result.Decisions {
		if d.Ambiguous {
			response.Ambiguous++
		}
	}

	return jsonResult(response)
}

// GenerateSplit handles the generate_split tool
func (h *Handlers) GenerateSplit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataset, err := request.RequireString("dataset")
	if err != nil {
		return mcp.NewToolResultError("dataset argument is required and must be a string"), nil
	}

	first, second, err := models.ParseSplitLabels(request.GetString("labels", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := append([]core.Option{}, h.opts...)
	opts = append(opts,
		core.WithRatio(request.GetFloat("ratio", core.DefaultSplitRatio)),
		core.WithLabels(first, second),
	)
	if seed := request.GetInt("seed", -1); seed >= 0 {
		opts = append(opts, core.WithSeed(uint64(seed)))
	}

	store, err := sqlite.NewStorage(ctx, h.db, dataset, sqlite.VariantBase)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open dataset: %v", err)), nil
	}
	splitter, err := core.NewSplitter(store, opts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid split options: %v", err)), nil
	}

	h.splitMu.Lock()
	split, err := splitter.Generate(ctx)
	h.splitMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("split generation failed: %v", err)), nil
	}

	return jsonResult(SplitResponse{
		Dataset: dataset,
		Labels:  []string{string(first), string(second)},
		Ratio:   splitter.Ratio(),
		Train:   len(split.Train),
		Test:    len(split.Test),
	})
}

// SampleSegments handles the sample_segments tool
func (h *Handlers) SampleSegments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataset, err := request.RequireString("dataset")
	if err != nil {
		return mcp.NewToolResultError("dataset argument is required and must be a string"), nil
	}
	label := models.SplitLabel(request.GetString("split", string(models.SplitTest)))
	if !label.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown split %q", label)), nil
	}
	count := request.GetInt("count", 5)
	maxSize := request.GetInt("max_size", sqlite.DefaultMaxSegmentSize)

	store, err := sqlite.NewStorage(ctx, h.db, dataset, sqlite.VariantBase)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open dataset: %v", err)), nil
	}

	sampler := core.NewSampler(store, h.opts...)
	segments, err := sampler.RandomSegments(ctx, label, count, maxSize, request.GetBool("synthetic", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sampling failed: %v", err)), nil
	}
	if segments == nil {
		segments = []models.Segment{}
	}

	return jsonResult(SampleResponse{
		Dataset:  dataset,
		Split:    string(label),
		Segments: segments,
	})
}

// DatasetStats handles the dataset_stats tool
func (h *Handlers) DatasetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataset, err := request.RequireString("dataset")
	if err != nil {
		return mcp.NewToolResultError("dataset argument is required and must be a string"), nil
	}

	store, err := sqlite.NewStorage(ctx, h.db, dataset, sqlite.VariantBase)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open dataset: %v", err)), nil
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count dataset: %v", err)), nil
	}

	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
