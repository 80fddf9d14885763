package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/kindle"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

const (
	maxClippingsFileSize = 10 * 1024 * 1024 // 10 MB
	clippingsFileField   = "clippings_file"
	selectionField       = "selection"
	dryRunField          = "dry_run"
)

// ClippingsController handles preview and import of uploaded exports.
type ClippingsController struct {
	importer services.ClippingsImporter
	queue    TaskQueue
}

// NewClippingsController creates a controller. queue may be nil when the
// task queue is disabled.
func NewClippingsController(importer services.ClippingsImporter, queue TaskQueue) *ClippingsController {
	return &ClippingsController{
		importer: importer,
		queue:    queue,
	}
}

// upload is a validated import request body
type upload struct {
	filename  string
	content   []byte
	selection entities.Selection
	dryRun    bool
}

// Preview handles POST /api/clippings/preview
// Returns the books found in the upload, for building a selection.
func (cc *ClippingsController) Preview(c *gin.Context) {
	up, ok := cc.readUpload(c)
	if !ok {
		return
	}

	preview, err := cc.importer.Preview(bytes.NewReader(up.content))
	if err != nil {
		cc.respondImportError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Import handles POST /api/clippings/import
// Runs the export synchronously and returns the per-book outcome.
func (cc *ClippingsController) Import(c *gin.Context) {
	up, ok := cc.readUpload(c)
	if !ok {
		return
	}

	report, err := cc.importer.Import(c.Request.Context(), services.ImportRequest{
		Source:    audit.SourceHTTP,
		File:      up.filename,
		Input:     bytes.NewReader(up.content),
		Selection: up.selection,
		DryRun:    up.dryRun,
	})
	if err != nil {
		cc.respondImportError(c, err, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ImportAsync handles POST /api/clippings/import/async
// Enqueues the export on the task queue and returns the task id.
func (cc *ClippingsController) ImportAsync(c *gin.Context) {
	if cc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "tasks_disabled", "task queue is disabled", nil)
		return
	}

	up, ok := cc.readUpload(c)
	if !ok {
		return
	}

	taskID, err := cc.queue.Enqueue(tasks.ImportClippingsTask{
		Source:    audit.SourceTask,
		File:      up.filename,
		Content:   up.content,
		Selection: up.selection,
		DryRun:    up.dryRun,
	})
	if err != nil {
		respondInternalError(c, err, "enqueue import")
		return
	}

	respondAccepted(c, "import enqueued", gin.H{
		"task_id": taskID,
		"file":    up.filename,
	})
}

// readUpload validates the multipart form. On failure it has already responded.
func (cc *ClippingsController) readUpload(c *gin.Context) (*upload, bool) {
	file, header, err := c.Request.FormFile(clippingsFileField)
	if err != nil {
		respondBadRequest(c, "Clippings file not provided")
		return nil, false
	}
	defer file.Close()

	tooLarge := fmt.Sprintf("File too large (max %d MB)", maxClippingsFileSize/(1024*1024))
	if header.Size > maxClippingsFileSize {
		respondBadRequest(c, tooLarge)
		return nil, false
	}

	// Read file with size limit
	content, err := io.ReadAll(io.LimitReader(file, maxClippingsFileSize+1))
	if err != nil {
		respondBadRequest(c, "Failed to read clippings file")
		return nil, false
	}
	if len(content) > maxClippingsFileSize {
		respondBadRequest(c, tooLarge)
		return nil, false
	}

	up := &upload{filename: header.Filename, content: content}

	if raw := c.PostForm(selectionField); raw != "" {
		if err := json.Unmarshal([]byte(raw), &up.selection); err != nil {
			respondBadRequest(c, "invalid selection: "+err.Error())
			return nil, false
		}
	}

	if raw := c.PostForm(dryRunField); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid "+dryRunField)
			return nil, false
		}
		up.dryRun = dryRun
	}

	return up, true
}

func (cc *ClippingsController) respondImportError(c *gin.Context, err error, report *services.ImportReport) {
	switch {
	case errors.Is(err, kindle.ErrNoClippings):
		respondError(c, http.StatusUnprocessableEntity, "no_clippings", err.Error(), nil)
	case errors.Is(err, services.ErrNoBooksSelected):
		respondError(c, http.StatusUnprocessableEntity, "no_books_selected", err.Error(), nil)
	case errors.Is(err, services.ErrExportFailed):
		// Books before the failure are already written.
		respondError(c, http.StatusBadGateway, "export_failed", err.Error(), report)
	default:
		respondInternalError(c, err, "import clippings")
	}
}
