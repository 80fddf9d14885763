package tasks

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/services"
)

// ImportClippingsTask runs the import pipeline in the background. The export
// is either carried inline (uploads) or read from Path when the task runs.
type ImportClippingsTask struct {
	Source    string             `json:"source"`
	File      string             `json:"file"`
	Path      string             `json:"path,omitempty"`
	Content   []byte             `json:"content,omitempty"`
	Selection entities.Selection `json:"selection"`
	DryRun    bool               `json:"dry_run"`
}

// Config returns the queue configuration for import tasks. Imports run once.
func (t ImportClippingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_clippings",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportClippingsProcessor creates a processor function for ImportClippingsTask.
// timeout bounds a single run; zero leaves only the queue timeout.
func ImportClippingsProcessor(importer services.ClippingsImporter, timeout time.Duration) backlite.QueueProcessor[ImportClippingsTask] {
	return func(ctx context.Context, task ImportClippingsTask) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req := services.ImportRequest{
			Source:    task.Source,
			File:      task.File,
			Selection: task.Selection,
			DryRun:    task.DryRun,
		}

		var (
			report *services.ImportReport
			err    error
		)
		if task.Path != "" {
			report, err = importer.ImportFile(ctx, task.Path, req)
		} else {
			req.Input = bytes.NewReader(task.Content)
			report, err = importer.Import(ctx, req)
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", task.File, err)
		}

		log.Printf("[TASK] Imported %s: %d books processed, %d clippings added",
			task.File, report.Result.BooksProcessed, report.Result.ClippingsAdded)
		return nil
	}
}

// NewImportClippingsQueue creates a backlite queue for import tasks.
func NewImportClippingsQueue(importer services.ClippingsImporter, timeout time.Duration) backlite.Queue {
	return backlite.NewQueue(ImportClippingsProcessor(importer, timeout))
}
