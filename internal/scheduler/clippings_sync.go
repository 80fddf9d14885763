package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

// AuditCleanupSchedule runs the audit retention sweep daily at 03:00
const AuditCleanupSchedule = "0 3 * * *"

// Enqueuer hands work to the background task queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// ClippingsSyncScheduler periodically re-imports a clippings file and,
// when a task queue is available, enqueues the audit cleanup.
type ClippingsSyncScheduler struct {
	importer      services.ClippingsImporter
	config        config.Sync
	queue         Enqueuer
	retentionDays int

	cron       *cron.Cron
	syncID     cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewClippingsSyncScheduler creates a new scheduler instance. queue may be nil,
// in which case syncs run inline and no cleanup job is scheduled.
func NewClippingsSyncScheduler(importer services.ClippingsImporter, cfg config.Sync, queue Enqueuer, retentionDays int) *ClippingsSyncScheduler {
	return &ClippingsSyncScheduler{
		importer:      importer,
		config:        cfg,
		queue:         queue,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start registers the enabled jobs and starts the cron runner.
func (s *ClippingsSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := 0
	if s.syncConfigured() {
		if err := ValidateSchedule(s.config.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
		}
		entryID, err := s.cron.AddFunc(s.config.Schedule, s.runSync)
		if err != nil {
			return fmt.Errorf("failed to schedule sync job: %w", err)
		}
		s.syncID = entryID
		jobs++

		nextRun, _ := NextRunTime(s.config.Schedule, time.Now())
		log.Printf("Clippings sync scheduler: syncing %s with schedule '%s' (%s). Next run: %v",
			s.config.ClippingsPath, s.config.Schedule, DescribeSchedule(s.config.Schedule), nextRun)
	}

	if s.queue != nil {
		if _, err := s.cron.AddFunc(AuditCleanupSchedule, s.enqueueCleanup); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
		jobs++
	}

	if jobs == 0 {
		log.Printf("Clippings sync scheduler: nothing to schedule")
		return nil
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	// Monitor for context cancellation
	go func(ctx context.Context) {
		<-ctx.Done()
		s.Stop()
	}(s.ctx)

	return nil
}

func (s *ClippingsSyncScheduler) syncConfigured() bool {
	if !s.config.Enabled {
		log.Printf("Clippings sync scheduler: sync disabled")
		return false
	}
	if s.config.ClippingsPath == "" {
		log.Printf("Clippings sync scheduler: clippings path not configured, skipping")
		return false
	}
	return true
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *ClippingsSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cancelFunc()
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Clippings sync scheduler: stopped")
}

// IsRunning returns whether the scheduler is active
func (s *ClippingsSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextSyncTime returns when the next sync will occur
func (s *ClippingsSyncScheduler) NextSyncTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || s.syncID == 0 {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.syncID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *ClippingsSyncScheduler) runSync() {
	// s.ctx is set before the cron runner starts; Stop holds s.mu while
	// waiting for this job, so it is read without the lock.
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.SyncNow(ctx); err != nil {
		log.Printf("Clippings sync: %v", err)
	}
}

// SyncNow imports the configured clippings file once. With a task queue the
// import is enqueued, otherwise it runs on the calling goroutine.
func (s *ClippingsSyncScheduler) SyncNow(ctx context.Context) error {
	if s.config.ClippingsPath == "" {
		return fmt.Errorf("clippings path not configured")
	}

	file := filepath.Base(s.config.ClippingsPath)
	if s.queue != nil {
		id, err := s.queue.Enqueue(tasks.ImportClippingsTask{
			Source: audit.SourceSchedule,
			File:   file,
			Path:   s.config.ClippingsPath,
		})
		if err != nil {
			return err
		}
		log.Printf("Clippings sync: queued import of %s as task %s", file, id)
		return nil
	}

	log.Printf("Clippings sync: importing %s", s.config.ClippingsPath)
	startTime := time.Now()
	report, err := s.importer.ImportFile(ctx, s.config.ClippingsPath, services.ImportRequest{
		Source: audit.SourceSchedule,
		File:   file,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	log.Printf("Clippings sync: %d books processed, %d clippings added in %v",
		report.Result.BooksProcessed, report.Result.ClippingsAdded, time.Since(startTime).Round(time.Millisecond))
	return nil
}

func (s *ClippingsSyncScheduler) enqueueCleanup() {
	if _, err := s.queue.Enqueue(tasks.CleanupAuditFilesTask{RetentionDays: s.retentionDays}); err != nil {
		log.Printf("Audit cleanup: failed to enqueue: %v", err)
	}
}
