// Package cli implements the clippings command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/trace"
)

// loadConfig is replaced in tests
var loadConfig = config.NewConfig

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "clippings",
		Short: "Export Kindle clippings into a note store",
		Long: `clippings reads a Kindle "My Clippings.txt" export, groups it by book and
writes one note per book into SQLite, Joplin or a Markdown vault. Re-running an
import only appends clippings the note does not contain yet.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Trace parsing and export decisions")

	tracer := func() trace.Func {
		if verbose {
			return trace.Log("[KINDLE] ")
		}
		return nil
	}

	rootCmd.AddCommand(
		newServeCommand(version),
		newImportCommand(tracer),
		newBooksCommand(tracer),
		newRenderCommand(tracer),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
