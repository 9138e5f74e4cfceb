package testkit

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/stockroom/pkg/mail"
)

// MailRecorder is a mail.Transport that keeps every message in memory.
// Set Err to make every Send fail.
type MailRecorder struct {
	mu   sync.Mutex
	sent []*mail.Message
	Err  error
}

func (r *MailRecorder) Send(ctx context.Context, m *mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, m)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *MailRecorder) Sent() []*mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mail.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// Subjects lists recorded subjects in send order.
func (r *MailRecorder) Subjects() []string {
	var out []string
	for _, m := range r.Sent() {
		out = append(out, m.Subj)
	}
	return out
}

// Reset forgets recorded messages.
func (r *MailRecorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
