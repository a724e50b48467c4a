// ABOUTME: CLI command to segment a document with the continuation oracle
// ABOUTME: Optionally stores segments in a dataset and scores against gold labels
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/benchmarks/segeval"
	"github.com/harper/topicseg/internal/config"
	"github.com/harper/topicseg/internal/core"
	"github.com/harper/topicseg/internal/corpus"
	"github.com/harper/topicseg/internal/storage/sqlite"
)

var (
	segmentDataset  string
	segmentVariant  string
	segmentWindow   int
	segmentPrompt   string
	segmentOracle   string
	segmentRAG      bool
	segmentEvaluate bool
)

// segmentOutput is the structured result of a segment run
type segmentOutput struct {
	RunID      string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source     string           `json:"source" yaml:"source"`
	Sentences  int              `json:"sentences" yaml:"sentences"`
	Segments   [][]string       `json:"segments" yaml:"segments"`
	Labels     []bool           `json:"labels" yaml:"labels"`
	Decisions  []core.Decision  `json:"decisions,omitempty" yaml:"decisions,omitempty"`
	SegmentIDs []int64          `json:"segment_ids,omitempty" yaml:"segment_ids,omitempty"`
	Pending    []string         `json:"pending,omitempty" yaml:"pending,omitempty"`
	Evaluation *segeval.Metrics `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSegmentCmd creates the segment command
func NewSegmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment [file]",
		Short: "Segment a document into topics",
		Long: `Segment a document into topical segments.

Each sentence is shown to the language model together with the rolling
context of the open segment. A "false" answer starts a new segment.
Input may be a text file, a JSON Lines file of {"sentence": ...} records,
a PDF, or standard input when no file (or "-") is given.

With --dataset every segment is stored as soon as it closes. With
--evaluate, JSON Lines input carrying "target" flags is scored.

Examples:
  topicseg segment notes.txt
  topicseg segment transcript.jsonl --prompt meeting --evaluate
  cat article.txt | topicseg segment --dataset city
  topicseg segment paper.pdf --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSegment,
	}

	cmd.Flags().StringVar(&segmentDataset, "dataset", "", "Store segments in this dataset")
	cmd.Flags().StringVar(&segmentVariant, "variant", "base", "Dataset table variant: base, test, validation")
	cmd.Flags().IntVar(&segmentWindow, "window", 0, "Rolling context size (default: TOPICSEG_WINDOW or 5)")
	cmd.Flags().StringVar(&segmentPrompt, "prompt", "", "Prompt template: paragraph or meeting")
	cmd.Flags().StringVar(&segmentOracle, "oracle", "", "Oracle backend: chat or structured")
	cmd.Flags().BoolVar(&segmentRAG, "rag", false, "Augment prompts with passages stored by 'topicseg index'")
	cmd.Flags().BoolVar(&segmentEvaluate, "evaluate", false, "Score predictions against gold target flags")

	return cmd
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySegmentFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	doc, err := readDocument(cmd, args)
	if err != nil {
		return err
	}
	if len(doc.Sentences) == 0 {
		return fmt.Errorf("no sentences found in %s", doc.Source)
	}
	if segmentEvaluate && !doc.Labeled() {
		return fmt.Errorf("--evaluate needs JSON Lines input with a target flag on every record")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var (
		store      *sqlite.Storage
		embeddings *sqlite.EmbeddingStore
	)
	switch {
	case segmentDataset != "":
		variant, err := sqlite.ParseVariant(segmentVariant)
		if err != nil {
			return err
		}
		db, s, err := openStorage(ctx, cfg, segmentDataset, variant)
		if err != nil {
			return err
		}
		defer db.Close()
		store, embeddings = s, s.Embeddings
	case segmentRAG:
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		embeddings = sqlite.NewEmbeddingStore(db)
	}

	oracle, err := newOracle(cfg, embeddings, segmentRAG)
	if err != nil {
		return err
	}
	opts, err := segmenterOptions(cfg, logger)
	if err != nil {
		return err
	}
	segmenter, err := core.NewSegmenter(oracle, opts...)
	if err != nil {
		return err
	}

	out := segmentOutput{Source: doc.Source, Sentences: len(doc.Sentences)}
	var result core.Result
	var runErr error
	if segmentDataset != "" {
		result, runErr = ingestDocument(ctx, segmenter, store, doc, &out, opts)
	} else {
		result, runErr = segmenter.Predict(ctx, doc.Sentences)
	}

	out.Segments = result.Segments()
	out.Labels = result.Labels()
	if verbose || structuredFormat() {
		out.Decisions = result.Decisions
	}
	if segmentEvaluate {
		m := segeval.EvaluateLabels(out.Labels, doc.Labels, segeval.DefaultConfig())
		out.Evaluation = &m
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	if structuredFormat() {
		if err := writeStructured(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		printSegmentTable(cmd, doc.Sentences, out)
	}

	if runErr != nil {
		return fmt.Errorf("segmentation stopped after %d of %d sentences: %w", len(result.Decisions), len(doc.Sentences), runErr)
	}
	return nil
}

func applySegmentFlags(cfg *config.Config) {
	if segmentWindow > 0 {
		cfg.WindowSize = segmentWindow
	}
	if segmentPrompt != "" {
		cfg.Prompt = segmentPrompt
	}
	if segmentOracle != "" {
		cfg.Oracle = segmentOracle
	}
}

func readDocument(cmd *cobra.Command, args []string) (corpus.Document, error) {
	if len(args) == 0 || args[0] == "-" {
		doc, err := corpus.ReadText(cmd.InOrStdin())
		if err != nil {
			return corpus.Document{}, fmt.Errorf("reading stdin: %w", err)
		}
		doc.Source = "stdin"
		return doc, nil
	}
	doc, err := corpus.Load(args[0])
	if err != nil {
		return corpus.Document{}, fmt.Errorf("loading %s: %w", args[0], err)
	}
	return doc, nil
}

func ingestDocument(ctx context.Context, segmenter *core.Segmenter, store *sqlite.Storage, doc corpus.Document, out *segmentOutput, opts []core.Option) (core.Result, error) {
	ingestor, err := core.NewIngestor(segmenter, store.Sentences, opts...)
	if err != nil {
		return core.Result{}, err
	}
	res, err := ingestor.Ingest(ctx, doc.Sentences)
	out.RunID = res.RunID
	out.SegmentIDs = res.SegmentIDs
	out.Pending = res.Pending
	return res.Result, err
}

func printSegmentTable(cmd *cobra.Command, sentences []string, out segmentOutput) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tBOUNDARY\tSENTENCE\n")
	fmt.Fprintf(w, "-\t--------\t--------\n")
	for i, label := range out.Labels {
		marker := "same"
		if label {
			marker = "NEW"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, marker, truncate(sentences[i], 80))
	}
	w.Flush()

	if quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d sentence(s), %d segment(s)\n", len(out.Labels), len(out.Segments))
	if len(out.SegmentIDs) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d segment(s) in %s (run %s)\n", len(out.SegmentIDs), segmentDataset, out.RunID)
	}
	if out.Evaluation != nil {
		m := out.Evaluation
		fmt.Fprintf(cmd.OutOrStdout(), "Precision %.2f  Recall %.2f  F1 %.2f  Pk %.2f  WindowDiff %.2f\n",
			m.Precision, m.Recall, m.F1, m.Pk, m.WindowDiff)
	}
}
