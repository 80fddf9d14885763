package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings/internal/entrypoint"
)

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, scheduler and file watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version)
		},
	}
}

func runServe(version string) error {
	entrypoint.Run(loadConfig(), version)
	return nil
}
