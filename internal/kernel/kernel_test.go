package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresDatabaseAndDisk(t *testing.T) {
	_, err := New(Deps{})
	assert.ErrorContains(t, err, "database is required")

	_, err = New(Deps{DB: testkit.DB(t)})
	assert.ErrorContains(t, err, "storage disk is required")
}

func TestScheduledAlertBatch(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"alerts:send  [0 8 * * *]"}, f.kernel.Scheduler.List())

	require.NoError(t, f.kernel.DB.Model(&models.Product{}).Where("name = ?", "Widget").Update("quantity", 1).Error)
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	assert.Equal(t, 1, f.kernel.Scheduler.RunDue(context.Background(), at))
	assert.Equal(t, []string{"Low stock alert: Widget"}, f.outbox.Subjects())
}

func TestQueuedAlertBatchRuns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kernel.DB.Model(&models.Product{}).Where("name = ?", "Widget").Update("quantity", 0).Error)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.kernel.Queue.Work(ctx, 1) }()

	require.NoError(t, f.kernel.Queue.Dispatch(ctx, jobs.AlertBatchName, &jobs.AlertBatch{ExpiryDays: 30}))
	require.Eventually(t, func() bool { return len(f.outbox.Sent()) == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestCloseReleasesDatabase(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	k, err := New(Deps{DB: testkit.DB(t), Disk: disk})
	require.NoError(t, err)

	require.NoError(t, k.Close())
	sqlDB, err := k.DB.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
