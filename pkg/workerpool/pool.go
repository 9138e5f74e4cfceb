// Package workerpool bounds how many tasks run at once.
//
//	pool := workerpool.New("queue", 4)
//	defer pool.Shutdown()
//
//	if err := pool.Go(ctx, task); err != nil {
//	    // ctx ended before a slot freed up, or the pool is shut down
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrPoolFull is returned by TryGo when every slot is taken.
	ErrPoolFull = errors.New("workerpool: pool is full")
	// ErrPoolClosed is returned once Shutdown has started.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool runs each task on its own goroutine, at most size at a time.
type Pool struct {
	name string
	sem  *semaphore.Weighted
	wg   sync.WaitGroup
	busy atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// New returns a pool with size slots. name tags panic logs.
func New(name string, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{name: name, sem: semaphore.NewWeighted(int64(size))}
}

// Go waits for a free slot and starts task on it.
func (p *Pool) Go(ctx context.Context, task func()) error {
	if err := p.reserve(); err != nil {
		return err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return err
	}
	p.start(task)
	return nil
}

// TryGo starts task only if a slot is free right now.
func (p *Pool) TryGo(task func()) error {
	if err := p.reserve(); err != nil {
		return err
	}
	if !p.sem.TryAcquire(1) {
		p.wg.Done()
		return ErrPoolFull
	}
	p.start(task)
	return nil
}

// Busy is the number of tasks currently running.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Shutdown refuses new tasks and waits for running ones. Safe to call twice.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

// reserve counts the task against the WaitGroup while holding the read lock,
// so Shutdown's Wait never races an Add.
func (p *Pool) reserve() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.wg.Add(1)
	return nil
}

func (p *Pool) start(task func()) {
	p.busy.Add(1)
	go func() {
		defer func() {
			p.busy.Add(-1)
			p.sem.Release(1)
			p.wg.Done()
		}()
		p.run(task)
	}()
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked",
				"pool", p.name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	task()
}
