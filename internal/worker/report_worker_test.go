package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"beachrent/internal/database"
	"beachrent/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu          sync.Mutex
	err         error
	appended    []int64
	deleteCalls int
}

func (f *fakeSheets) AppendReport(_ context.Context, report *models.DailyReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, report.ID)
	return f.err
}

func (f *fakeSheets) DeleteReport(_ context.Context, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.err
}

func (f *fakeSheets) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "worker.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newWorker(t *testing.T, db *database.DB, sheets *fakeSheets, rdb *redis.Client, retry RetryPolicy) *ReportWorker {
	t.Helper()
	logger := zerolog.New(io.Discard)
	return NewReportWorker(db, sheets, rdb, retry, &logger)
}

func loadTaskStatus(t *testing.T, db *database.DB, id int64) (string, int, sql.NullTime) {
	t.Helper()
	var (
		status     string
		retryCount int
		nextRetry  sql.NullTime
	)
	err := db.QueryRow(`SELECT status, retry_count, next_retry_at FROM sync_queue WHERE id = ?`, id).
		Scan(&status, &retryCount, &nextRetry)
	require.NoError(t, err)
	return status, retryCount, nextRetry
}

func testReport(id int64) *models.DailyReport {
	return &models.DailyReport{ID: id, ReportDate: "2024-07-01", TotalEarnings: decimal.NewFromInt(100)}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := newWorker(t, db, sheets, nil, RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.EnqueueReport(ctx, testReport(1)))

	task, ok := w.tryLocalQueue()
	require.True(t, ok, "expected task in local queue")
	assert.Equal(t, TaskAppendReport, task.TaskType)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
	assert.Zero(t, retryCount)
	assert.False(t, nextRetry.Valid)
	assert.Equal(t, []int64{1}, sheets.appended)
}

func TestProcessTaskRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("quota exceeded")}
	w := newWorker(t, db, sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})
	ctx := context.Background()

	require.NoError(t, w.EnqueueReportDeletion(ctx, 2))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, retryCount, nextRetry := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusRetry, status)
	assert.Equal(t, 1, retryCount)
	require.True(t, nextRetry.Valid)
	assert.True(t, nextRetry.Time.After(time.Now().Add(-time.Second)))
	assert.Equal(t, 1, sheets.deleteCalls)

	// not due yet
	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessTaskFailGoesToDeadLetter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("permission denied")}
	w := newWorker(t, db, sheets, rdb, RetryPolicy{MaxRetries: 1})
	ctx := context.Background()

	require.NoError(t, w.EnqueueReport(ctx, testReport(3)))
	_, ok := w.tryLocalQueue()
	assert.False(t, ok, "redis is the fast path when configured")

	task, ok := w.tryRedis(ctx)
	require.True(t, ok)
	w.processTask(ctx, &task)

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)

	dead, err := s.List("beachrent:sheets:deadletter")
	require.NoError(t, err)
	require.Len(t, dead, 1)
	var deadTask models.SyncTask
	require.NoError(t, json.Unmarshal([]byte(dead[0]), &deadTask))
	assert.Equal(t, int64(3), deadTask.ReportID)
}

func TestApplyUnknownTask(t *testing.T) {
	w := newWorker(t, newTestDB(t), &fakeSheets{}, nil, RetryPolicy{})
	ctx := context.Background()

	assert.Error(t, w.apply(ctx, "resize", reportTaskPayload{ReportID: 1}))
	assert.Error(t, w.apply(ctx, TaskAppendReport, reportTaskPayload{ReportID: 1}))
	assert.Error(t, w.apply(ctx, TaskDeleteReport, reportTaskPayload{}))
}

func TestEnqueueValidation(t *testing.T) {
	w := newWorker(t, newTestDB(t), &fakeSheets{}, nil, RetryPolicy{})
	ctx := context.Background()

	assert.Error(t, w.EnqueueReport(ctx, nil))
	assert.Error(t, w.EnqueueReport(ctx, &models.DailyReport{}))
	assert.Error(t, w.EnqueueReportDeletion(ctx, 0))
}

func TestStartProcessesPersistedTasks(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := newWorker(t, db, sheets, nil, RetryPolicy{})
	w.pollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// persisted by a previous process, never queued in memory
	payload, err := json.Marshal(reportTaskPayload{ReportID: 9, Report: testReport(9)})
	require.NoError(t, err)
	task := models.SyncTask{TaskType: TaskAppendReport, ReportID: 9, Payload: string(payload), Status: models.SyncStatusPending}
	require.NoError(t, db.CreateSyncTask(ctx, &task))

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sheets.appendCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	status, _, _ := loadTaskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
}
