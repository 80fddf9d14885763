package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Sync    *SyncInfo         `json:"sync,omitempty"`
}

type SyncInfo struct {
	Running bool   `json:"running"`
	NextRun string `json:"next_run,omitempty"`
}

type HealthController struct {
	store   StoreChecker
	sync    SyncStatus
	version string
}

func NewHealthController(store StoreChecker, sync SyncStatus, version string) *HealthController {
	return &HealthController{
		store:   store,
		sync:    sync,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check note store connectivity
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			checks["store"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	// The scheduler is informational and never fails the check
	if h.sync != nil {
		health.Sync = &SyncInfo{Running: h.sync.IsRunning()}
		if next := h.sync.NextSyncTime(); next != nil {
			health.Sync.NextRun = next.Format(time.RFC3339)
		}
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
