// ABOUTME: CLI command to export a dataset's segments and split assignments
// ABOUTME: Writes YAML or JSON to stdout or a file
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/topicseg/internal/storage/sqlite"
)

var (
	exportOutput  string
	exportFormat  string
	exportVariant string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export segments and splits",
		Long: `Export every stored segment of a dataset together with its split label.

Supported formats are yaml (default) and json. Without -o the export is
written to stdout.

Examples:
  topicseg export city
  topicseg export city -o city.yaml
  topicseg export committee -f json -o committee.json`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Export format: yaml or json")
	cmd.Flags().StringVar(&exportVariant, "variant", "base", "Dataset table variant: base, test, validation")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	variant, err := sqlite.ParseVariant(exportVariant)
	if err != nil {
		return err
	}

	db, store, err := openStorage(cmd.Context(), cfg, args[0], variant)
	if err != nil {
		return err
	}
	defer db.Close()

	if exportOutput == "" {
		data, err := store.Export(cmd.Context())
		if err != nil {
			return err
		}
		return sqlite.WriteExport(cmd.OutOrStdout(), data, exportFormat)
	}

	if err := store.ExportToFile(cmd.Context(), exportOutput, exportFormat); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", args[0], exportOutput)
	}
	return nil
}
