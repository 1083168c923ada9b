// Package live pushes change notifications to subscribers. Tables fire
// NOTIFY on write; a Notifier turns those into Events and the Hub fans them
// out to subscribers of the same owner.
package live

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
)

// Table names carried by change events.
const (
	TableCustomers       = "customers"
	TableInventory       = "inventory_items"
	TableOrders          = "orders"
	TableDashboardOrders = "dashboard_orders"
	TableExpenses        = "expenses"
	TableIncomes         = "incomes"
)

type Event struct {
	Table   string    `json:"table"`
	OwnerID uuid.UUID `json:"owner_id"`
}

type Publisher interface {
	Publish(e Event)
}

type subscription struct {
	ownerID uuid.UUID
	tables  map[string]struct{}
	ch      chan Event
}

func (s *subscription) wants(e Event) bool {
	if s.ownerID != e.OwnerID {
		return false
	}
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[e.Table]
	return ok
}

type Hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe returns a channel receiving changes to tables for ownerID, or
// to every table when none are given. Delivery coalesces: a subscriber
// that has not drained the previous event gets no second one. The channel
// is closed when ctx ends or cancel is called.
func (h *Hub) Subscribe(ctx context.Context, ownerID uuid.UUID, tables ...string) (<-chan Event, func()) {
	sub := &subscription{
		ownerID: ownerID,
		tables:  make(map[string]struct{}, len(tables)),
		ch:      make(chan Event, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			close(sub.ch)
			h.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return sub.ch, cancel
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
