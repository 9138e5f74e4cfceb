package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countJob struct {
	N     int `json:"n"`
	total *atomic.Int64
}

func (j *countJob) Handle(context.Context) error {
	j.total.Add(int64(j.N))
	return nil
}

type failJob struct {
	attempts *atomic.Int32
}

func (j *failJob) Handle(context.Context) error {
	j.attempts.Add(1)
	return errors.New("always fails")
}

type traceJob struct {
	seen chan string
}

func (j *traceJob) Handle(ctx context.Context) error {
	j.seen <- reqid.FromCtx(ctx)
	return nil
}

func startWorkers(t *testing.T, m *queue.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Work(ctx, 2)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatchAndWork(t *testing.T) {
	var total atomic.Int64
	m := queue.New(queue.NewMemoryDriver(10), nil)
	m.Register("count", func() queue.Job { return &countJob{total: &total} })
	startWorkers(t, m)

	ctx := context.Background()
	require.NoError(t, m.Dispatch(ctx, "count", &countJob{N: 2}))
	require.NoError(t, m.Dispatch(ctx, "count", &countJob{N: 3}))

	assert.Eventually(t, func() bool { return total.Load() == 5 }, time.Second, 5*time.Millisecond)
}

func TestDispatchUnknown(t *testing.T) {
	m := queue.New(queue.NewMemoryDriver(1), nil)
	err := m.Dispatch(context.Background(), "nope", &countJob{})
	assert.ErrorIs(t, err, queue.ErrUnknownJob)
}

func TestFailedJobIsPersisted(t *testing.T) {
	db := testkit.DB(t)
	var attempts atomic.Int32
	m := queue.New(queue.NewMemoryDriver(10), db)
	m.SetRetry(3, time.Millisecond)
	m.Register("fail", func() queue.Job { return &failJob{attempts: &attempts} })
	startWorkers(t, m)

	require.NoError(t, m.Dispatch(context.Background(), "fail", &failJob{}))

	assert.Eventually(t, func() bool {
		failed, err := m.Failed(context.Background())
		return err == nil && len(failed) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())

	failed, err := m.Failed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fail", failed[0].JobType)
	assert.Equal(t, "always fails", failed[0].Error)
	assert.Equal(t, 3, failed[0].Attempts)
}

func TestMemoryDriverRespectsContext(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	require.NoError(t, d.Push(context.Background(), []byte("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Push(ctx, []byte("b")), context.Canceled)
	assert.Equal(t, 1, d.Len())

	raw, err := d.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", string(raw))
}

func TestJobKeepsDispatchingRequestID(t *testing.T) {
	seen := make(chan string, 1)
	m := queue.New(queue.NewMemoryDriver(10), nil)
	m.Register("trace", func() queue.Job { return &traceJob{seen: seen} })
	startWorkers(t, m)

	ctx := reqid.WithValue(context.Background(), "req-42")
	require.NoError(t, m.Dispatch(ctx, "trace", &traceJob{}))

	select {
	case id := <-seen:
		assert.Equal(t, "req-42", id)
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}
