package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	http_controllers "github.com/mrlokans/clippings/internal/http"
	"github.com/mrlokans/clippings/internal/scheduler"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/store"
	"github.com/mrlokans/clippings/internal/tasks"
	"github.com/mrlokans/clippings/internal/trace"
	"github.com/mrlokans/clippings/internal/watcher"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Services is the import pipeline shared by the server and the CLI commands.
type Services struct {
	Store    *store.Backend
	Auditor  *audit.Auditor
	Importer *services.ImportService
}

// NewServices opens the configured note store and builds the import service on top.
func NewServices(cfg *config.Config, tr trace.Func) (*Services, error) {
	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	auditor := audit.NewAuditor(cfg.Audit.Dir)
	importer := services.NewImportService(backend, backend.Name, cfg.Export, auditor, tr)

	return &Services{
		Store:    backend,
		Auditor:  auditor,
		Importer: importer,
	}, nil
}

// Close releases the note store.
func (s *Services) Close() error {
	return s.Store.Close()
}

// TaskConfig maps the task settings onto the queue configuration.
func TaskConfig(cfg config.Tasks) tasks.Config {
	taskCfg := tasks.DefaultConfig()
	if cfg.Workers > 0 {
		taskCfg.Workers = cfg.Workers
	}
	if cfg.TaskTimeout > 0 {
		taskCfg.TaskTimeout = cfg.TaskTimeout
	}
	if cfg.ReleaseAfter > 0 {
		taskCfg.ReleaseAfter = cfg.ReleaseAfter
	}
	if cfg.CleanupInterval > 0 {
		taskCfg.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RetentionDuration > 0 {
		taskCfg.RetentionDuration = cfg.RetentionDuration
	}
	return taskCfg
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting clippings v%s", version)

	svc, err := NewServices(cfg, trace.Log("[EXPORT] "))
	if err != nil {
		log.Fatalf("Failed to initialize note store: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Printf("Error closing note store: %v", err)
		}
	}()
	log.Printf("Note store: %s", svc.Store.Name)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := svc.Store.Ping(pingCtx); err != nil {
		log.Printf("WARNING: %s store is not reachable yet: %v", svc.Store.Name, err)
	}
	pingCancel()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.DBPath(cfg.Store.DatabasePath), TaskConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportClippingsQueue(svc.Importer, cfg.Tasks.TaskTimeout),
			tasks.NewCleanupAuditFilesQueue(svc.Auditor),
		)

		// Start task workers in background
		go taskClient.Start(bgCtx)
	}

	// Periodic re-import and audit retention
	var queue scheduler.Enqueuer
	if taskClient != nil {
		queue = taskClient
	}
	syncScheduler := scheduler.NewClippingsSyncScheduler(svc.Importer, cfg.Sync, queue, cfg.Audit.RetentionDays)
	if err := syncScheduler.Start(bgCtx); err != nil {
		log.Fatalf("Failed to start clippings sync scheduler: %v", err)
	}

	// Re-import on change
	var fileWatcher *watcher.Watcher
	if cfg.Watch.Enabled {
		if cfg.Sync.ClippingsPath == "" {
			log.Printf("WARNING: WATCH_ENABLED is set but CLIPPINGS_PATH is empty, file watcher disabled")
		} else {
			fileWatcher = watcher.New(cfg.Sync.ClippingsPath, cfg.Watch.Debounce, watcher.ImportHandler(svc.Importer))
			if err := fileWatcher.Start(bgCtx); err != nil {
				log.Printf("WARNING: Failed to start file watcher: %v", err)
				fileWatcher = nil
			}
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Importer: svc.Importer,
		Store:    svc.Store,
		Sync:     syncScheduler,
		Version:  version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if fileWatcher != nil {
			fileWatcher.Stop()
		}
		syncScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
	}

	Serve(router, cfg, onShutdown)
}
