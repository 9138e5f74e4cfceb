package queue

import "context"

// MemoryDriver is an in-process, channel-backed driver. Jobs do not survive a
// restart.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver buffers up to size jobs; Push blocks beyond that.
func NewMemoryDriver(size int) *MemoryDriver {
	if size <= 0 {
		size = 1000
	}
	return &MemoryDriver{ch: make(chan []byte, size)}
}

func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len reports queued jobs.
func (d *MemoryDriver) Len() int { return len(d.ch) }
