// Package stream pushes live expense list updates to subscribed clients.
// Updates are wholesale: every change re-reads the user's full list from the
// store and replaces whatever the subscriber held before, so a missed
// intermediate update never leaves a client stale.
package stream

import (
	"context"
	"sync"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
)

// Snapshot is one full-list state for a user. Err is set when the re-read
// failed; subscribers surface it instead of keeping stale data silently.
type Snapshot struct {
	Expenses []core.Expense
	Err      error
}

// Hub fans snapshots out to per-user subscribers.
type Hub struct {
	store  store.ExpenseStore
	logger *log.Logger

	mu       sync.Mutex
	subs     map[string]map[chan Snapshot]struct{}
	latest   map[string]Snapshot
	onNotify []func(userID string)
}

func NewHub(s store.ExpenseStore, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Hub{
		store:  s,
		logger: logger.WithComponent(log.ComponentStream),
		subs:   make(map[string]map[chan Snapshot]struct{}),
		latest: make(map[string]Snapshot),
	}
}

// Subscribe registers a listener for one user's snapshots and returns the
// channel plus an unsubscribe function. The current snapshot is delivered
// immediately, loading it from the store on first subscription.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	// Register before the initial load so a change landing mid-load is
	// published into ch instead of dropped.
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Snapshot]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	snap, known := h.latest[userID]
	if known {
		ch <- snap
	}
	h.mu.Unlock()

	if !known {
		loaded := h.load(ctx, userID)
		h.mu.Lock()
		// An unsubscribe during the load means nothing to deliver and no
		// latest entry to resurrect.
		if _, registered := h.subs[userID][ch]; registered {
			if fresh, ok := h.latest[userID]; ok {
				// A notification beat the initial load; its snapshot is
				// newer.
				loaded = fresh
			} else {
				h.latest[userID] = loaded
			}
			select {
			case ch <- loaded:
			default:
				select {
				case <-ch:
				default:
				}
				ch <- loaded
			}
		}
		h.mu.Unlock()
	}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
				delete(h.latest, userID)
			}
		}
	}
	return ch, cancel
}

// OnNotify registers a hook invoked for every change notification, local or
// remote, before subscribers receive the new snapshot. Hooks fire even when
// the user has no subscribers; derived state such as cached charts must be
// dropped either way.
func (h *Hub) OnNotify(fn func(userID string)) {
	h.mu.Lock()
	h.onNotify = append(h.onNotify, fn)
	h.mu.Unlock()
}

// Notify re-reads the user's list and publishes it to all subscribers. It is
// called after every create and delete, and for remote changes received over
// AMQP.
func (h *Hub) Notify(ctx context.Context, userID string) {
	h.mu.Lock()
	hooks := h.onNotify
	_, hasSubs := h.subs[userID]
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(userID)
	}
	if !hasSubs {
		return
	}

	snap := h.load(ctx, userID)
	h.publish(userID, snap)
}

// Run consumes cross-instance change messages until ctx is done. It is a
// no-op when client is nil.
func (h *Hub) Run(ctx context.Context, client *amqp.Client) error {
	if client == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return client.ConsumeExpenseChanges(ctx, func(msg *amqp.ExpenseChangeMessage) error {
		h.Notify(ctx, msg.UserID)
		return nil
	})
}

// Subscribers returns the number of active subscriptions for a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) load(ctx context.Context, userID string) Snapshot {
	expenses, err := h.store.ListExpenses(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load expense snapshot",
			log.FieldUserID, userID, "error", err)
		return Snapshot{Err: err}
	}
	return Snapshot{Expenses: expenses}
}

func (h *Hub) publish(userID string, snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[userID]; !ok {
		return
	}
	h.latest[userID] = snap
	for ch := range h.subs[userID] {
		// Latest snapshot wins; a slow subscriber drops the stale one.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
