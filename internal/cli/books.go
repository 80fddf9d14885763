package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings/internal/kindle"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/trace"
)

func newBooksCommand(tracer func() trace.Func) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the books found in a clippings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := previewFile(file, tracer())
			if err != nil {
				return err
			}
			return printBooks(cmd.OutOrStdout(), preview, asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to Kindle 'My Clippings.txt' file (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// previewFile summarizes an export without opening a note store.
func previewFile(path string, tr trace.Func) (*services.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clippings file: %w", err)
	}
	defer f.Close()

	clippings, err := kindle.NewParser(tr).Parse(f)
	if err != nil {
		return nil, err
	}
	if len(clippings) == 0 {
		return nil, kindle.ErrNoClippings
	}
	return services.Summarize(clippings, kindle.Aggregate(clippings, tr)), nil
}

func printBooks(out io.Writer, preview *services.Preview, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(preview)
	}

	fmt.Fprintf(out, "Found %d clippings in %d books\n\n", preview.ClippingsFound, len(preview.Books))
	for i, book := range preview.Books {
		author := book.Author
		if author == "" {
			author = "(no author)"
		}
		fmt.Fprintf(out, "%d. %q by %s (%d highlights, %d notes, %d bookmarks)\n",
			i+1, book.Title, author, book.Highlights, book.Notes, book.Bookmarks)
	}
	return nil
}
