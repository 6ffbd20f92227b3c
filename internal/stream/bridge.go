// Package stream bridges newly recorded audit logs to long-lived client
// connections.
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/gosuda/plaza/internal/domain"
)

// Delivery selects how a published record is handed to pending subscribers.
type Delivery string

const (
	// DeliverSingle hands each record to the oldest pending subscriber only.
	DeliverSingle Delivery = "single"
	// DeliverBroadcast hands each record to every pending subscriber.
	DeliverBroadcast Delivery = "broadcast"
)

// ParseDelivery converts a configuration value into a Delivery.
func ParseDelivery(s string) (Delivery, error) {
	switch d := Delivery(s); d {
	case DeliverSingle, DeliverBroadcast:
		return d, nil
	case "":
		return DeliverSingle, nil
	default:
		return "", fmt.Errorf("stream.ParseDelivery: unknown delivery mode %q", s)
	}
}

type waiter struct {
	ch chan domain.AuditLog
}

// Bridge is the in-process publish point for new audit logs. Subscriptions
// are one-shot: a subscriber receives at most one record and must subscribe
// again for the next. Records published while nobody waits are dropped.
type Bridge struct {
	mu       sync.Mutex
	waiters  []*waiter
	delivery Delivery
	metrics  *Metrics
}

// NewBridge creates a Bridge. metrics may be nil.
func NewBridge(delivery Delivery, metrics *Metrics) *Bridge {
	if delivery == "" {
		delivery = DeliverSingle
	}
	return &Bridge{delivery: delivery, metrics: metrics}
}

// Publish hands record to pending subscribers and returns how many received it.
func (b *Bridge) Publish(record domain.AuditLog) int {
	b.mu.Lock()
	var targets []*waiter
	switch {
	case len(b.waiters) == 0:
	case b.delivery == DeliverBroadcast:
		targets = b.waiters
		b.waiters = nil
	default:
		targets = []*waiter{b.waiters[0]}
		b.waiters[0] = nil
		b.waiters = b.waiters[1:]
	}
	b.mu.Unlock()

	b.metrics.published(len(targets))
	for _, w := range targets {
		// Buffered with capacity 1 and removed from the list above, so this
		// never blocks and never sends twice.
		w.ch <- record
	}
	return len(targets)
}

// Announce publishes entry. It lets the Bridge stand in as the announcer of
// a single-replica deployment.
func (b *Bridge) Announce(_ context.Context, entry *domain.AuditLog) error {
	b.Publish(*entry)
	return nil
}

// SubscribeOnce blocks until the next published record or until ctx is done.
// A cancelled subscription is removed before returning; if a record was
// handed over concurrently with cancellation, the record is returned.
func (b *Bridge) SubscribeOnce(ctx context.Context) (domain.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditLog{}, err
	}

	w := &waiter{ch: make(chan domain.AuditLog, 1)}
	b.mu.Lock()
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case record := <-w.ch:
		return record, nil
	case <-ctx.Done():
		if b.remove(w) {
			return domain.AuditLog{}, ctx.Err()
		}
		return <-w.ch, nil
	}
}

// Waiting returns the number of pending subscriptions.
func (b *Bridge) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}

func (b *Bridge) remove(target *waiter) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.waiters {
		if w == target {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return true
		}
	}
	return false
}
