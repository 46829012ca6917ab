package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const sendTimeout = 10 * time.Second

// Dispatcher routes notifications to registered senders.
type Dispatcher struct {
	senders []Sender
	mu      sync.RWMutex
	async   bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a new notification dispatcher.
// If async is true, notifications are sent in goroutines.
func NewDispatcher(async bool, senders ...Sender) *Dispatcher {
	d := &Dispatcher{
		senders: make([]Sender, 0, len(senders)),
		async:   async,
	}
	for _, s := range senders {
		d.Register(s)
	}
	return d
}

// Register adds a sender to the dispatcher.
func (d *Dispatcher) Register(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders = append(d.senders, sender)
}

// Unregister removes a sender from the dispatcher by name.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := make([]Sender, 0, len(d.senders))
	for _, s := range d.senders {
		if s.Name() != name {
			filtered = append(filtered, s)
		}
	}
	d.senders = filtered
}

// Dispatch sends a notification to all registered senders.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	d.mu.RLock()
	senders := make([]Sender, len(d.senders))
	copy(senders, d.senders)
	d.mu.RUnlock()

	// the caller's context may end with the request; sends outlive it
	ctx = context.WithoutCancel(ctx)

	for _, sender := range senders {
		if d.async {
			d.wg.Add(1)
			go func(s Sender) {
				defer d.wg.Done()
				d.sendWithRecover(ctx, s, n)
			}(sender)
			continue
		}
		d.sendWithRecover(ctx, sender, n)
	}
}

// Wait blocks until in-flight async sends finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Name implements Sender, so an async dispatcher can hang off a
// synchronous one.
func (d *Dispatcher) Name() string {
	return "dispatcher"
}

// Send implements Sender by dispatching n to the registered senders.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	d.Dispatch(ctx, n)
	return nil
}

// sendWithRecover sends a notification and recovers from panics.
func (d *Dispatcher) sendWithRecover(ctx context.Context, sender Sender, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"sender": sender.Name(), "panic": r}).Error("Notification sender panicked")
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, n); err != nil {
		log.WithError(err).WithField("sender", sender.Name()).Error("Failed to send notification")
	}
}
