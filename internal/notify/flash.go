package notify

import (
	"context"
	"sync"
)

const maxFlashPerAudience = 20

// Flash keeps notifications until the next render drains them.
type Flash struct {
	mu      sync.Mutex
	pending map[string][]Notification
}

// NewFlash creates an empty flash queue.
func NewFlash() *Flash {
	return &Flash{pending: make(map[string][]Notification)}
}

func (f *Flash) Name() string { return "flash" }

// Send queues n for its audience, dropping the oldest entries past the cap.
func (f *Flash) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := append(f.pending[n.Audience], n)
	if len(q) > maxFlashPerAudience {
		q = q[len(q)-maxFlashPerAudience:]
	}
	f.pending[n.Audience] = q
	return nil
}

// Drain returns and forgets the notifications queued for audience.
func (f *Flash) Drain(audience string) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := f.pending[audience]
	delete(f.pending, audience)
	return q
}
