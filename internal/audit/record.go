package audit

import (
	"log"
	"time"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
)

// Import run triggers
const (
	SourceCLI      = "cli"
	SourceHTTP     = "http"
	SourceTask     = "task"
	SourceSchedule = "schedule"
	SourceWatch    = "watch"
)

type ImportStatus string

const (
	ImportStatusSuccess ImportStatus = "success"
	ImportStatusFailed  ImportStatus = "failed"
)

// ImportRecord describes one run of the import pipeline.
type ImportRecord struct {
	Source         string                 `json:"source"`
	File           string                 `json:"file,omitempty"`
	Store          string                 `json:"store"`
	DryRun         bool                   `json:"dry_run"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
	ClippingsFound int                    `json:"clippings_found"`
	BooksFound     int                    `json:"books_found"`
	Selection      entities.Selection     `json:"selection"`
	Result         exporters.ExportResult `json:"result"`
	Status         ImportStatus           `json:"status"`
	ErrorMsg       string                 `json:"error_msg,omitempty"`
}

// RecordImport saves the record and returns its file name. Failures are
// logged, not returned.
func (a *Auditor) RecordImport(record ImportRecord) string {
	if a == nil {
		return ""
	}
	filename, err := a.SaveJSON("import", record)
	if err != nil {
		log.Printf("[AUDIT] Failed to save import record: %v", err)
		return ""
	}
	return filename
}
