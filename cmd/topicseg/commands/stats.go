// ABOUTME: CLI command to show dataset statistics
// ABOUTME: Counts sentences, segments, and split assignments
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/internal/storage/sqlite"
)

var statsVariant string

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <dataset>",
		Short: "Show dataset statistics",
		Long: `Show how many sentences and segments a dataset holds and how its
segments are distributed across the train, test and validation splits.

Examples:
  topicseg stats city
  topicseg stats product --variant test
  topicseg stats city --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runStats,
	}

	cmd.Flags().StringVar(&statsVariant, "variant", "base", "Dataset table variant: base, test, validation")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	variant, err := sqlite.ParseVariant(statsVariant)
	if err != nil {
		return err
	}

	db, store, err := openStorage(cmd.Context(), cfg, args[0], variant)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting %s: %w", args[0], err)
	}

	if structuredFormat() {
		return writeStructured(cmd.OutOrStdout(), stats)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Dataset:\t%s\n", stats.Dataset)
	fmt.Fprintf(w, "Table:\t%s\n", stats.Table)
	fmt.Fprintf(w, "Sentences:\t%d\n", stats.Sentences)
	fmt.Fprintf(w, "Segments:\t%d\n", stats.Segments)
	fmt.Fprintf(w, "Train:\t%d\n", stats.Train)
	fmt.Fprintf(w, "Test:\t%d\n", stats.Test)
	fmt.Fprintf(w, "Validation:\t%d\n", stats.Validation)
	return w.Flush()
}
