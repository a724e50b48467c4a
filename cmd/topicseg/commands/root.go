// ABOUTME: Root command and global flags for the topicseg CLI
// ABOUTME: Registers every subcommand and validates verbosity flags
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	dbPath       string
)

const banner = `
████████╗ ██████╗ ██████╗ ██╗ ██████╗███████╗███████╗ ██████╗
╚══██╔══╝██╔═══██╗██╔══██╗██║██╔════╝██╔════╝██╔════╝██╔════╝
   ██║   ██║   ██║██████╔╝██║██║     ███████╗█████╗  ██║  ███╗
   ██║   ██║   ██║██╔═══╝ ██║██║     ╚════██║██╔══╝  ██║   ██║
   ██║   ╚██████╔╝██║     ██║╚██████╗███████║███████╗╚██████╔╝
   ╚═╝    ╚═════╝ ╚═╝     ╚═╝ ╚═════╝╚══════╝╚══════╝ ╚═════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topicseg",
		Short: "LLM-driven topic segmentation of sentence streams",
		Long: banner + `

Segment text into topical units with a sliding-window language model
oracle, store the segments per dataset, and draw train/test splits and
samples for evaluation.

Configuration comes from the environment (or a .env file):
  OPENAI_API_KEY, OPENAI_BASE_URL, TOPICSEG_MODEL, TOPICSEG_WINDOW,
  TOPICSEG_DB_PATH, LOG_LEVEL, LOG_FORMAT`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "text", "json", "yaml":
				return nil
			}
			return fmt.Errorf("unknown --format %q (auto, text, json, yaml)", outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors and suppress status output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json, yaml")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: TOPICSEG_DB_PATH or the XDG data directory)")

	cmd.AddCommand(
		NewSegmentCmd(),
		NewImportCmd(),
		NewIndexCmd(),
		NewSplitCmd(),
		NewSampleCmd(),
		NewStatsCmd(),
		NewExportCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
