package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/entrypoint"
	"github.com/mrlokans/clippings/internal/exporters"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/trace"
)

type importOptions struct {
	file             string
	books            []string
	collectionID     string
	collection       string
	tags             []string
	noAuthorTag      bool
	noSkipDuplicates bool
	dryRun           bool
}

func newImportCommand(tracer func() trace.Func) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a clippings file into the configured note store",
		Long: `Import highlights and notes from a Kindle "My Clippings.txt" file.

The clippings file is typically found at:
  /Volumes/Kindle/documents/My Clippings.txt

The target store is chosen with STORE_BACKEND (sqlite, joplin or vault).`,
		Example: `  # Import every book
  clippings import --file "/Volumes/Kindle/documents/My Clippings.txt"

  # Two books into a named collection, with an extra tag
  clippings import --file "My Clippings.txt" --book Dune --book Emma --collection Reading --tag fiction

  # Preview what would be written
  clippings import --file "My Clippings.txt" --dry-run -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runImport(ctx, cmd.OutOrStdout(), opts, tracer())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to Kindle 'My Clippings.txt' file (required)")
	cmd.Flags().StringArrayVar(&opts.books, "book", nil, "Only import this book title (repeatable)")
	cmd.Flags().StringVar(&opts.collectionID, "collection-id", "", "Target collection ID (wins over --collection)")
	cmd.Flags().StringVar(&opts.collection, "collection", "", "Target collection name, created when missing")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "Additional tag for every exported note (repeatable)")
	cmd.Flags().BoolVar(&opts.noAuthorTag, "no-author-tag", false, "Do not add the author:{name} tag")
	cmd.Flags().BoolVar(&opts.noSkipDuplicates, "no-skip-duplicates", false, "Always create a new note instead of merging into the note with the same title")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be imported without making changes")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (o *importOptions) selection() entities.Selection {
	sel := entities.Selection{
		Books: o.books,
		Tags:  o.tags,
		Collection: entities.CollectionRef{
			ID:   o.collectionID,
			Name: o.collection,
		},
	}
	if o.noAuthorTag {
		no := false
		sel.TagWithAuthor = &no
	}
	if o.noSkipDuplicates {
		no := false
		sel.SkipDuplicates = &no
	}
	return sel
}

func runImport(ctx context.Context, out io.Writer, opts *importOptions, tr trace.Func) error {
	if _, err := os.Stat(opts.file); err != nil {
		return fmt.Errorf("clippings file not found: %s", opts.file)
	}

	svc, err := entrypoint.NewServices(loadConfig(), tr)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintln(out, "Kindle Import")
	fmt.Fprintln(out, "=============")
	if opts.dryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
	}
	fmt.Fprintf(out, "File:  %s\n", opts.file)
	fmt.Fprintf(out, "Store: %s\n\n", svc.Store.Name)

	report, err := svc.Importer.ImportFile(ctx, opts.file, services.ImportRequest{
		Source:    audit.SourceCLI,
		Selection: opts.selection(),
		DryRun:    opts.dryRun,
		Progress: func(current, total int, label string) {
			fmt.Fprintf(out, "[%d/%d] %s\n", current, total, label)
		},
	})
	if report != nil {
		printReport(out, report)
	}
	return err
}

func printReport(out io.Writer, report *services.ImportReport) {
	fmt.Fprintln(out)
	for _, o := range report.Result.Outcomes {
		line := fmt.Sprintf("  %-40s %s", o.Title, o.Status)
		if o.ClippingsAdded > 0 || o.ClippingsSkipped > 0 {
			line += fmt.Sprintf(" (+%d, %d skipped)", o.ClippingsAdded, o.ClippingsSkipped)
		}
		if o.Status == exporters.StatusFailed {
			line += ": " + o.Error
		}
		fmt.Fprintln(out, line)
	}

	r := report.Result
	fmt.Fprintf(out, "\nFound %d clippings in %d books, %d selected\n", report.ClippingsFound, report.BooksFound, report.BooksSelected)
	fmt.Fprintf(out, "Books: %d created, %d updated, %d unchanged\n", r.BooksCreated, r.BooksUpdated, r.BooksSkipped)
	fmt.Fprintf(out, "Clippings: %d added, %d skipped\n", r.ClippingsAdded, r.ClippingsSkipped)
	if report.AuditFile != "" {
		fmt.Fprintf(out, "Audit record: %s\n", report.AuditFile)
	}
}
