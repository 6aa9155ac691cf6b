// Package events carries checkout notifications between loosely coupled parts
// of the client: the orchestrator publishes, the cart and the forwarder listen.
package events

import (
	"context"
	"sync"
	"time"
)

type Kind string

const (
	PaymentCompleted  Kind = "payment.completed"
	PaymentCancelled  Kind = "payment.cancelled"
	PaymentFailed     Kind = "payment.failed"
	CheckoutCancelled Kind = "checkout.cancelled"
)

type Event struct {
	Kind       Kind      `json:"event_type"`
	OrderID    int64     `json:"order_id"`
	IntentID   string    `json:"intent_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id      int
	kinds   map[Kind]struct{}
	handler Handler
}

func (s subscription) wants(k Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus delivers each event synchronously to its subscribers, in publish order
// and in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
	now    func() time.Time
}

func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Subscribe registers h for the given kinds, or for every kind when none are given.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	b.subs = append(b.subs, subscription{id: id, kinds: set, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = b.now()
	}
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		if s.wants(ev.Kind) {
			s.handler(ctx, ev)
		}
	}
}
