package services

import (
	"context"
	"errors"
	"io"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
)

// ErrNoBooksSelected is returned when a selection names none of the books
// found in the export.
var ErrNoBooksSelected = errors.New("none of the selected books are in the clippings file")

// ErrExportFailed wraps store failures during an export. The report returned
// with it covers the books written before the failure.
var ErrExportFailed = errors.New("export failed")

// ClippingsImporter is the pipeline entry point shared by the CLI, the HTTP
// API, the task queue, the scheduler and the file watcher.
type ClippingsImporter interface {
	Preview(r io.Reader) (*Preview, error)
	Import(ctx context.Context, req ImportRequest) (*ImportReport, error)
	ImportFile(ctx context.Context, path string, req ImportRequest) (*ImportReport, error)
}

// ImportRequest is one run of the pipeline.
type ImportRequest struct {
	// Source names the trigger for the audit record (audit.SourceCLI, ...).
	Source string
	// File is a label for the input, usually its path or upload name.
	File      string
	Input     io.Reader
	Selection entities.Selection
	DryRun    bool
	Progress  exporters.ProgressFunc
}

// ImportReport is the summary of a run.
type ImportReport struct {
	ClippingsFound int                    `json:"clippings_found"`
	BooksFound     int                    `json:"books_found"`
	BooksSelected  int                    `json:"books_selected"`
	DryRun         bool                   `json:"dry_run"`
	Result         exporters.ExportResult `json:"result"`
	AuditFile      string                 `json:"audit_file,omitempty"`
}

// BookSummary describes one book found in an export.
type BookSummary struct {
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	DocumentTitle string `json:"document_title"`
	Highlights    int    `json:"highlights"`
	Notes         int    `json:"notes"`
	Bookmarks     int    `json:"bookmarks"`
}

// Preview lists the books of an export without touching the store.
type Preview struct {
	ClippingsFound int                 `json:"clippings_found"`
	Books          []BookSummary       `json:"books"`
	Shelf          *entities.Bookshelf `json:"-"`
}
