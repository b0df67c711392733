package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/store/memory"
)

func waitSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestSubscribeDeliversCurrentState(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	if _, err := s.AppendExpense(ctx, core.Expense{
		Amount:   core.Money{Cents: 1000},
		Category: core.Food,
		Date:     core.Today(),
		UserID:   "u1",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	ch, cancel := hub.Subscribe(ctx, "u1")
	defer cancel()

	snap := waitSnapshot(t, ch)
	if snap.Err != nil {
		t.Fatalf("snapshot error: %v", snap.Err)
	}
	if len(snap.Expenses) != 1 {
		t.Errorf("initial snapshot holds %d records, want 1", len(snap.Expenses))
	}
}

func TestNotifyPushesWholesaleUpdate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	ch, cancel := hub.Subscribe(ctx, "u1")
	defer cancel()

	if got := len(waitSnapshot(t, ch).Expenses); got != 0 {
		t.Fatalf("initial snapshot holds %d records, want 0", got)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.AppendExpense(ctx, core.Expense{
			Amount:   core.Money{Cents: 500},
			Category: core.Other,
			Date:     core.Today(),
			UserID:   "u1",
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	hub.Notify(ctx, "u1")

	snap := waitSnapshot(t, ch)
	if len(snap.Expenses) != 2 {
		t.Errorf("snapshot holds %d records, want the full list of 2", len(snap.Expenses))
	}
}

func TestSlowSubscriberGetsLatestOnly(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	ch, cancel := hub.Subscribe(ctx, "u1")
	defer cancel()
	waitSnapshot(t, ch)

	// Three updates without a read in between; only the last state matters.
	for i := 0; i < 3; i++ {
		if _, err := s.AppendExpense(ctx, core.Expense{
			Amount:   core.Money{Cents: 100},
			Category: core.Food,
			Date:     core.Today(),
			UserID:   "u1",
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
		hub.Notify(ctx, "u1")
	}

	snap := waitSnapshot(t, ch)
	if len(snap.Expenses) != 3 {
		t.Errorf("snapshot holds %d records, want 3", len(snap.Expenses))
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra snapshot with %d records", len(extra.Expenses))
	default:
	}
}

func TestSnapshotsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	chA, cancelA := hub.Subscribe(ctx, "alice")
	defer cancelA()
	chB, cancelB := hub.Subscribe(ctx, "bob")
	defer cancelB()
	waitSnapshot(t, chA)
	waitSnapshot(t, chB)

	if _, err := s.AppendExpense(ctx, core.Expense{
		Amount:   core.Money{Cents: 100},
		Category: core.Food,
		Date:     core.Today(),
		UserID:   "alice",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	hub.Notify(ctx, "alice")

	snap := waitSnapshot(t, chA)
	if len(snap.Expenses) != 1 {
		t.Errorf("alice's snapshot holds %d records, want 1", len(snap.Expenses))
	}
	select {
	case <-chB:
		t.Error("bob received alice's update")
	case <-time.After(50 * time.Millisecond):
	}
}

type failingLister struct{ err error }

func (f failingLister) AppendExpense(context.Context, core.Expense) (string, error) {
	return "", f.err
}
func (f failingLister) DeleteExpense(context.Context, string, string) error { return f.err }
func (f failingLister) ListExpenses(context.Context, string) ([]core.Expense, error) {
	return nil, f.err
}

func TestSnapshotCarriesLoadError(t *testing.T) {
	wantErr := errors.New("store down")
	hub := NewHub(failingLister{err: wantErr}, nil)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	defer cancel()

	snap := waitSnapshot(t, ch)
	if !errors.Is(snap.Err, wantErr) {
		t.Errorf("snapshot error = %v, want store error", snap.Err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	ch, cancel := hub.Subscribe(ctx, "u1")
	waitSnapshot(t, ch)
	if got := hub.Subscribers("u1"); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	cancel()
	if got := hub.Subscribers("u1"); got != 0 {
		t.Errorf("subscribers after cancel = %d, want 0", got)
	}

	hub.Notify(ctx, "u1")
	select {
	case <-ch:
		t.Error("received snapshot after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifyRunsHooks(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := NewHub(s, nil)

	var notified []string
	hub.OnNotify(func(userID string) {
		notified = append(notified, userID)
	})

	// No subscribers yet; derived state still has to be dropped.
	hub.Notify(ctx, "u1")
	if len(notified) != 1 || notified[0] != "u1" {
		t.Fatalf("hook calls without subscribers = %v, want [u1]", notified)
	}

	ch, cancel := hub.Subscribe(ctx, "u1")
	defer cancel()
	waitSnapshot(t, ch)

	hub.Notify(ctx, "u1")
	if len(notified) != 2 {
		t.Errorf("hook calls with a subscriber = %d, want 2", len(notified))
	}
}

// gatedLister blocks the first list call until released, so tests can land a
// change while a subscriber's initial load is still in flight.
type gatedLister struct {
	calls   atomic.Int64
	release chan struct{}
	before  []core.Expense
	after   []core.Expense
}

func (g *gatedLister) AppendExpense(context.Context, core.Expense) (string, error) {
	return "", nil
}
func (g *gatedLister) DeleteExpense(context.Context, string, string) error { return nil }
func (g *gatedLister) ListExpenses(context.Context, string) ([]core.Expense, error) {
	if g.calls.Add(1) == 1 {
		<-g.release
		return g.before, nil
	}
	return g.after, nil
}

func TestSubscribeDoesNotMissConcurrentChange(t *testing.T) {
	ctx := context.Background()
	g := &gatedLister{
		release: make(chan struct{}),
		after: []core.Expense{{
			ID:       "e1",
			Amount:   core.Money{Cents: 1000},
			Category: core.Food,
			Date:     core.Today(),
			UserID:   "u1",
		}},
	}
	hub := NewHub(g, nil)

	type sub struct {
		ch     <-chan Snapshot
		cancel func()
	}
	done := make(chan sub)
	go func() {
		ch, cancel := hub.Subscribe(ctx, "u1")
		done <- sub{ch, cancel}
	}()

	// Wait until the initial load is in flight; registration precedes it.
	deadline := time.Now().Add(2 * time.Second)
	for g.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial load never started")
		}
		time.Sleep(time.Millisecond)
	}

	// A write lands while the initial load is still blocked.
	hub.Notify(ctx, "u1")
	close(g.release)

	s := <-done
	defer s.cancel()

	snap := waitSnapshot(t, s.ch)
	if snap.Err != nil {
		t.Fatalf("snapshot error: %v", snap.Err)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != "e1" {
		t.Fatalf("subscriber got %d records, want the post-change snapshot", len(snap.Expenses))
	}
}
