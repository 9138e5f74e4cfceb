// Package queue runs background jobs through a pluggable driver.
//
//	m := queue.New(queue.NewMemoryDriver(100), db)
//	m.Register("alerts.batch", func() queue.Job { return &AlertBatch{svc: alerts} })
//	m.Dispatch(ctx, "alerts.batch", &AlertBatch{ExpiryDays: 30})
//	go m.Work(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
	"gorm.io/gorm"
)

// Job is one unit of background work. Its exported fields are the payload.
type Job interface {
	Handle(ctx context.Context) error
}

// Driver stores encoded jobs. Pop returns (nil, nil) when it timed out
// without a job.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// ErrUnknownJob is returned by Dispatch for a name that was never registered.
var ErrUnknownJob = errors.New("queue: unknown job")

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey"         json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"job_type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text"          json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null"           json:"failed_at"`
}

func (FailedJob) TableName() string { return "failed_jobs" }

type envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Manager dispatches and works jobs.
type Manager struct {
	driver   Driver
	db       *gorm.DB
	mu       sync.RWMutex
	registry map[string]func() Job
	maxRetry int
	backoff  time.Duration
}

// New returns a Manager on driver. Failed jobs are written to db when it is
// not nil.
func New(driver Driver, db *gorm.DB) *Manager {
	return &Manager{
		driver:   driver,
		db:       db,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  time.Second,
	}
}

// SetRetry sets attempts per job and the linear backoff between them.
func (m *Manager) SetRetry(attempts int, backoff time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	m.maxRetry = attempts
	m.backoff = backoff
}

// Register makes a job type available under name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// Dispatch encodes job and pushes it under name.
func (m *Manager) Dispatch(ctx context.Context, name string, job Job) error {
	m.mu.RLock()
	_, ok := m.registry[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload, RequestID: reqid.FromCtx(ctx)})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	if err := m.driver.Push(ctx, env); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("queue: job dispatched", "type", name)
	return nil
}

// Work pops jobs and runs them on concurrency workers until ctx is done.
// Jobs already taken off the queue finish before Work returns.
func (m *Manager) Work(ctx context.Context, concurrency int) error {
	pool := workerpool.New("queue", concurrency)
	defer pool.Shutdown()
	logger.Info("queue: workers started", "count", concurrency)

	jobCtx := context.WithoutCancel(ctx)
	for {
		raw, err := m.driver.Pop(ctx)
		if ctx.Err() != nil {
			if err == nil && raw != nil {
				m.requeue(jobCtx, raw)
			}
			logger.Info("queue: workers stopping")
			return nil
		}
		if err != nil {
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		if err := pool.Go(ctx, func() { m.process(jobCtx, raw) }); err != nil {
			if ctx.Err() != nil {
				// The job was popped but never started; put it back.
				m.requeue(jobCtx, raw)
				return nil
			}
			return err
		}
	}
}

func (m *Manager) requeue(ctx context.Context, raw []byte) {
	if err := m.driver.Push(ctx, raw); err != nil {
		logger.Error("queue: requeue on shutdown", "error", err)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	// Jobs log under the request that dispatched them.
	log := logger.L.With("job", env.Type)
	if env.RequestID != "" {
		ctx = reqid.WithValue(ctx, env.RequestID)
		log = log.With("request_id", env.RequestID)
	}
	ctx = logger.InjectLogger(ctx, log)

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		log.Warn("queue: unregistered job type")
		m.persistFailed(ctx, env, ErrUnknownJob, 0)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		log.Error("queue: unmarshal payload", "error", err)
		m.persistFailed(ctx, env, err, 0)
		return
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.ObserveJob(env.Type, true, time.Since(start))
			log.Info("queue: job processed", "attempt", attempt)
			return
		}
		log.Warn("queue: job failed", "attempt", attempt, "error", lastErr)
		if attempt < m.maxRetry {
			sleep(ctx, time.Duration(attempt)*m.backoff)
		}
	}
	metrics.ObserveJob(env.Type, false, time.Since(start))
	log.Error("queue: job exhausted retries", "error", lastErr)
	m.persistFailed(ctx, env, lastErr, m.maxRetry)
}

func (m *Manager) persistFailed(ctx context.Context, env envelope, err error, attempts int) {
	if m.db == nil {
		return
	}
	rec := FailedJob{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    err.Error(),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	}
	if dbErr := m.db.WithContext(ctx).Create(&rec).Error; dbErr != nil {
		logger.WithCtx(ctx).Error("queue: persist failed job", "error", dbErr)
	}
}

// Failed lists failed jobs, newest first.
func (m *Manager) Failed(ctx context.Context) ([]FailedJob, error) {
	if m.db == nil {
		return nil, nil
	}
	var out []FailedJob
	err := m.db.WithContext(ctx).Order("failed_at desc, id desc").Find(&out).Error
	return out, err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
