package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings/internal/document"
	"github.com/mrlokans/clippings/internal/kindle"
	"github.com/mrlokans/clippings/internal/trace"
)

func newRenderCommand(tracer func() trace.Func) *cobra.Command {
	var file, book string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the note a book would be exported as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := tracer()
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open clippings file: %w", err)
			}
			defer f.Close()

			clippings, err := kindle.NewParser(tr).Parse(f)
			if err != nil {
				return err
			}
			group := kindle.Aggregate(clippings, tr).Get(book)
			if group == nil {
				return fmt.Errorf("book %q not found in %s", book, file)
			}

			fmt.Fprint(cmd.OutOrStdout(), document.Render(group).String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to Kindle 'My Clippings.txt' file (required)")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Exact book title (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("book")

	return cmd
}
