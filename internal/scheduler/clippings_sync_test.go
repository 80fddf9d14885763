package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

type fakeImporter struct {
	paths    []string
	requests []services.ImportRequest
	err      error
}

func (f *fakeImporter) Preview(r io.Reader) (*services.Preview, error) {
	return &services.Preview{}, nil
}

func (f *fakeImporter) Import(ctx context.Context, req services.ImportRequest) (*services.ImportReport, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &services.ImportReport{}, nil
}

func (f *fakeImporter) ImportFile(ctx context.Context, path string, req services.ImportRequest) (*services.ImportReport, error) {
	f.paths = append(f.paths, path)
	return f.Import(ctx, req)
}

type fakeQueue struct {
	tasks []backlite.Task
	err   error
}

func (f *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return "task-1", nil
}

func syncConfig() config.Sync {
	return config.Sync{
		ClippingsPath: "/kindle/documents/My Clippings.txt",
		Enabled:       true,
		Schedule:      "0 * * * *",
	}
}

func TestStart_DisabledWithoutQueue(t *testing.T) {
	cfg := syncConfig()
	cfg.Enabled = false

	s := NewClippingsSyncScheduler(&fakeImporter{}, cfg, nil, 30)
	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextSyncTime())
}

func TestStart_MissingPathWithoutQueue(t *testing.T) {
	cfg := syncConfig()
	cfg.ClippingsPath = ""

	s := NewClippingsSyncScheduler(&fakeImporter{}, cfg, nil, 30)
	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
}

func TestStart_InvalidSchedule(t *testing.T) {
	cfg := syncConfig()
	cfg.Schedule = "every hour"

	s := NewClippingsSyncScheduler(&fakeImporter{}, cfg, nil, 30)
	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestStartStop(t *testing.T) {
	s := NewClippingsSyncScheduler(&fakeImporter{}, syncConfig(), nil, 30)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	next := s.NextSyncTime()
	require.NotNil(t, next)
	assert.Zero(t, next.Minute())

	// Starting twice is a no-op
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextSyncTime())
}

func TestStart_CleanupOnlyWithQueue(t *testing.T) {
	cfg := syncConfig()
	cfg.Enabled = false

	s := NewClippingsSyncScheduler(&fakeImporter{}, cfg, &fakeQueue{}, 30)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.Nil(t, s.NextSyncTime(), "no sync job without sync enabled")
}

func TestSyncNow_Inline(t *testing.T) {
	importer := &fakeImporter{}
	s := NewClippingsSyncScheduler(importer, syncConfig(), nil, 30)

	require.NoError(t, s.SyncNow(context.Background()))

	assert.Equal(t, []string{"/kindle/documents/My Clippings.txt"}, importer.paths)
	require.Len(t, importer.requests, 1)
	assert.Equal(t, audit.SourceSchedule, importer.requests[0].Source)
	assert.Equal(t, "My Clippings.txt", importer.requests[0].File)
}

func TestSyncNow_InlineFailure(t *testing.T) {
	importer := &fakeImporter{err: errors.New("store offline")}
	s := NewClippingsSyncScheduler(importer, syncConfig(), nil, 30)

	err := s.SyncNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
}

func TestSyncNow_Queued(t *testing.T) {
	importer := &fakeImporter{}
	queue := &fakeQueue{}
	s := NewClippingsSyncScheduler(importer, syncConfig(), queue, 30)

	require.NoError(t, s.SyncNow(context.Background()))

	assert.Empty(t, importer.paths, "queued syncs do not import inline")
	require.Len(t, queue.tasks, 1)
	task, ok := queue.tasks[0].(tasks.ImportClippingsTask)
	require.True(t, ok)
	assert.Equal(t, audit.SourceSchedule, task.Source)
	assert.Equal(t, "/kindle/documents/My Clippings.txt", task.Path)
	assert.Empty(t, task.Content)
}

func TestSyncNow_MissingPath(t *testing.T) {
	cfg := syncConfig()
	cfg.ClippingsPath = ""
	s := NewClippingsSyncScheduler(&fakeImporter{}, cfg, nil, 30)

	assert.Error(t, s.SyncNow(context.Background()))
}

func TestEnqueueCleanup(t *testing.T) {
	queue := &fakeQueue{}
	s := NewClippingsSyncScheduler(&fakeImporter{}, syncConfig(), queue, 14)

	s.enqueueCleanup()

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.CleanupAuditFilesTask{RetentionDays: 14}, queue.tasks[0])
}
