package http

import "github.com/mrlokans/clippings/internal/services"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Importer services.ClippingsImporter
	Store    StoreChecker
	Sync     SyncStatus

	// Task queue client (optional). Without it the async import and task
	// status endpoints are not registered.
	TaskQueue TaskQueue

	// Application info
	Version string
}
