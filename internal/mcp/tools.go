// ABOUTME: MCP tool definitions and registration for the segmentation server
// ABOUTME: Declares input schemas for the segment, split, sample, and stats tools
package mcp

import (
	"log/slog"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server.
// oracle may be nil, in which case segment_text reports an error.
func RegisterTools(server *mcpserver.MCPServer, db *sqlite.DB, oracle core.Oracle, logger *slog.Logger, opts ...core.Option) *Handlers {
	handlers := NewHandlers(db, oracle, logger, opts...)

	// 1. segment_text - Segment free text into topical segments
	server.AddTool(mcp.Tool{
		Name:        "segment_text",
		Description: "Split text into sentences and group them into topical segments using the continuation oracle. Optionally stores the segments in a dataset.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to segment. Paragraphs separated by blank lines.",
				},
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to store the segments in. Required when store is true.",
				},
				"store": map[string]interface{}{
					"type":        "boolean",
					"description": "Store each segment as it closes (default: false)",
					"default":     false,
				},
			},
			Required: []string{"text"},
		},
	}, handlers.SegmentText)

	// 2. generate_split - Regenerate the train/test split of a dataset
	server.AddTool(mcp.Tool{
		Name:        "generate_split",
		Description: "Randomly partition every segment of a dataset into train and test sets, replacing any previous split.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to split",
				},
				"ratio": map[string]interface{}{
					"type":        "number",
					"description": "Share of segments assigned to train (default: 0.75)",
					"default":     core.DefaultSplitRatio,
				},
				"seed": map[string]interface{}{
					"type":        "number",
					"description": "Optional shuffle seed for a reproducible split",
				},
				"labels": map[string]interface{}{
					"type":        "string",
					"description": "Comma-separated labels for the two partitions: train,test (default) or test,validation",
					"default":     "train,test",
				},
			},
			Required: []string{"dataset"},
		},
	}, handlers.GenerateSplit)

	// 3. sample_segments - Sample segments from one split
	server.AddTool(mcp.Tool{
		Name:        "sample_segments",
		Description: "Return randomly sampled segments from the train or test split of a dataset.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to sample from",
				},
				"split": map[string]interface{}{
					"type":        "string",
					"description": "Split label: train or test (default: test)",
					"enum":        []string{"train", "test", "validation"},
					"default":     "test",
				},
				"count": map[string]interface{}{
					"type":        "number",
					"description": "Number of segments to return (default: 5)",
					"default":     5,
				},
				"max_size": map[string]interface{}{
					"type":        "number",
					"description": "Maximum sentences per segment (default: 1000)",
					"default":     sqlite.DefaultMaxSegmentSize,
				},
				"synthetic": map[string]interface{}{
					"type":        "boolean",
					"description": "Re-chunk segments into fixed-size pieces (default: false)",
					"default":     false,
				},
			},
			Required: []string{"dataset"},
		},
	}, handlers.SampleSegments)

	// 4. dataset_stats - Count sentences, segments, and split sizes
	server.AddTool(mcp.Tool{
		Name:        "dataset_stats",
		Description: "Count stored sentences, segments, and split assignments for a dataset.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Dataset to inspect",
				},
			},
			Required: []string{"dataset"},
		},
	}, handlers.DatasetStats)

	return handlers
}
