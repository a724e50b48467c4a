// ABOUTME: CLI command to embed reference passages for retrieval-augmented segmentation
// ABOUTME: Fills the embeddings table that 'segment --rag' searches
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/corpus"
	"github.com/harper/topicseg/internal/llm"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

var indexChunk int

// indexSummary reports what an index run stored
type indexSummary struct {
	Source   string `json:"source" yaml:"source"`
	Passages int    `json:"passages" yaml:"passages"`
	Total    int    `json:"total" yaml:"total"`
}

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Embed reference passages for --rag",
		Long: `Embed a document and store its passages in the database's embeddings
table. 'topicseg segment --rag' retrieves from this table, so run index
first or every retrieval comes back empty.

A labeled JSONL corpus is stored one passage per gold segment. Text and
PDF input is cut into passages of --chunk sentences. Passages are keyed
by source and position, so indexing the same file again replaces them.

Examples:
  topicseg index reference.txt
  topicseg index city.jsonl
  cat notes.txt | topicseg index --chunk 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().IntVar(&indexChunk, "chunk", 3, "Sentences per passage for unlabeled input")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(indexChunk, "chunk"); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.HasOracleCredentials() {
		return fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required for indexing")
	}

	doc, err := readDocument(cmd, args)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	embedder, err := llm.NewOpenAIClientWithConfig(llm.ClientConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	embeddings := sqlite.NewEmbeddingStore(db)
	retriever := core.NewRetriever(embedder, embeddings)

	passages := indexPassages(doc, indexChunk)
	for i, passage := range passages {
		id := fmt.Sprintf("%s:%d", doc.Source, i+1)
		if err := retriever.Index(cmd.Context(), id, doc.Source, passage); err != nil {
			return fmt.Errorf("indexing passage %d: %w", i+1, err)
		}
	}

	total, err := embeddings.Count(cmd.Context())
	if err != nil {
		return err
	}
	summary := indexSummary{Source: doc.Source, Passages: len(passages), Total: total}

	if structuredFormat() {
		return writeStructured(cmd.OutOrStdout(), summary)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d passage(s) from %s (%d stored)\n",
			summary.Passages, summary.Source, summary.Total)
	}
	return nil
}

// indexPassages joins gold segments, or runs of chunk sentences when unlabeled.
func indexPassages(doc corpus.Document, chunk int) []string {
	groups := doc.Segments()
	if groups == nil {
		for start := 0; start < len(doc.Sentences); start += chunk {
			end := min(start+chunk, len(doc.Sentences))
			groups = append(groups, doc.Sentences[start:end])
		}
	}
	passages := make([]string, 0, len(groups))
	for _, g := range groups {
		passages = append(passages, strings.Join(g, " "))
	}
	return passages
}
