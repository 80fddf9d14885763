package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
	"github.com/mrlokans/clippings/internal/kindle"
	"github.com/mrlokans/clippings/internal/trace"
)

// ImportService runs parse, aggregate, select, export and audit for one input.
// Runs are serialized so two imports never interleave against one store.
type ImportService struct {
	store     exporters.NoteStore
	storeName string
	defaults  config.Export
	auditor   *audit.Auditor
	trace     trace.Func

	mu sync.Mutex
}

var _ ClippingsImporter = (*ImportService)(nil)

// NewImportService creates a new ImportService. A nil auditor disables audit records.
func NewImportService(store exporters.NoteStore, storeName string, defaults config.Export, auditor *audit.Auditor, tr trace.Func) *ImportService {
	return &ImportService{
		store:     store,
		storeName: storeName,
		defaults:  defaults,
		auditor:   auditor,
		trace:     trace.OrNop(tr),
	}
}

// Preview parses an export and summarizes its books.
func (s *ImportService) Preview(r io.Reader) (*Preview, error) {
	clippings, shelf, err := s.parse(r)
	if err != nil {
		return nil, err
	}

	return Summarize(clippings, shelf), nil
}

// Summarize counts the clipping kinds of every book on the shelf.
func Summarize(clippings []entities.Clipping, shelf *entities.Bookshelf) *Preview {
	preview := &Preview{ClippingsFound: len(clippings), Shelf: shelf}
	for _, group := range shelf.Groups() {
		summary := BookSummary{
			Title:         group.Title,
			Author:        group.Author,
			DocumentTitle: group.DocumentTitle(),
		}
		for _, c := range group.Clippings {
			switch c.Kind {
			case entities.ClipKindHighlight:
				summary.Highlights++
			case entities.ClipKindNote:
				summary.Notes++
			case entities.ClipKindBookmark:
				summary.Bookmarks++
			}
		}
		preview.Books = append(preview.Books, summary)
	}
	return preview
}

// ImportFile opens path and imports it.
func (s *ImportService) ImportFile(ctx context.Context, path string, req ImportRequest) (*ImportReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clippings file: %w", err)
	}
	defer file.Close()

	req.Input = file
	if req.File == "" {
		req.File = path
	}
	return s.Import(ctx, req)
}

// Import runs the whole pipeline. Every run that got past reading its input
// leaves an audit record, failed runs included.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := audit.ImportRecord{
		Source:    req.Source,
		File:      req.File,
		Store:     s.storeName,
		DryRun:    req.DryRun,
		StartedAt: time.Now().UTC(),
		Selection: req.Selection,
	}
	report := &ImportReport{DryRun: req.DryRun}

	err := s.run(ctx, req, report)

	record.FinishedAt = time.Now().UTC()
	record.ClippingsFound = report.ClippingsFound
	record.BooksFound = report.BooksFound
	record.Result = report.Result
	record.Status = audit.ImportStatusSuccess
	if err != nil {
		record.Status = audit.ImportStatusFailed
		record.ErrorMsg = err.Error()
	}
	report.AuditFile = s.auditor.RecordImport(record)

	return report, err
}

func (s *ImportService) run(ctx context.Context, req ImportRequest, report *ImportReport) error {
	clippings, shelf, err := s.parse(req.Input)
	if err != nil {
		return err
	}
	report.ClippingsFound = len(clippings)
	report.BooksFound = shelf.Len()

	selected := shelf.Select(req.Selection.Books)
	if selected.Len() == 0 {
		return ErrNoBooksSelected
	}
	report.BooksSelected = selected.Len()

	opts := s.Options(req.Selection)
	opts.DryRun = req.DryRun
	opts.Progress = req.Progress

	s.trace("exporting %d of %d books to %s", selected.Len(), shelf.Len(), s.storeName)
	result, err := exporters.NewExporter(s.store, s.trace).Export(ctx, selected, opts)
	report.Result = result
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

func (s *ImportService) parse(r io.Reader) ([]entities.Clipping, *entities.Bookshelf, error) {
	clippings, err := kindle.NewParser(s.trace).Parse(r)
	if err != nil {
		return nil, nil, err
	}
	if len(clippings) == 0 {
		return nil, nil, kindle.ErrNoClippings
	}
	return clippings, kindle.Aggregate(clippings, s.trace), nil
}

// Options combines the configured defaults with a selection. A collection
// in the selection replaces the configured one; selected tags are added to
// the configured additional tags.
func (s *ImportService) Options(sel entities.Selection) exporters.Options {
	opts := exporters.Options{
		CollectionID:   s.defaults.CollectionID,
		CollectionName: s.defaults.CollectionName,
		SkipDuplicates: s.defaults.SkipDuplicates,
		TagWithAuthor:  s.defaults.TagWithAuthor,
		BaseTags:       s.defaults.BaseTags,
	}
	if !sel.Collection.IsZero() {
		opts.CollectionID = sel.Collection.ID
		opts.CollectionName = sel.Collection.Name
	}
	if sel.SkipDuplicates != nil {
		opts.SkipDuplicates = *sel.SkipDuplicates
	}
	if sel.TagWithAuthor != nil {
		opts.TagWithAuthor = *sel.TagWithAuthor
	}
	opts.AdditionalTags = append(append([]string{}, s.defaults.AdditionalTags...), sel.Tags...)
	return opts
}
