package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
	"spendtrack/internal/store/memory"
	"spendtrack/internal/stream"
)

func validExpense(userID string) core.Expense {
	return core.Expense{
		Amount:   core.Money{Cents: 1500},
		Category: core.Food,
		Date:     core.Today(),
		UserID:   userID,
	}
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := NewExpenseService(s, nil, nil, nil)

	id, err := svc.CreateExpense(ctx, validExpense("u1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("create returned empty id")
	}

	list, err := svc.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %+v, want the created record", list)
	}
}

func TestCreateExpenseRejectsInvalid(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil, nil, nil)

	cases := []struct {
		name   string
		mutate func(*core.Expense)
		want   error
	}{
		{"zero amount", func(e *core.Expense) { e.Amount.Cents = 0 }, core.ErrInvalidAmount},
		{"unknown category", func(e *core.Expense) { e.Category = "Bribes" }, core.ErrInvalidCategory},
		{"future date", func(e *core.Expense) { e.Date = core.DateOf(time.Now().AddDate(0, 0, 2)) }, core.ErrFutureDate},
		{"missing user", func(e *core.Expense) { e.UserID = "" }, core.ErrEmptyUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExpense("u1")
			tc.mutate(&e)
			if _, err := svc.CreateExpense(context.Background(), e); !errors.Is(err, tc.want) {
				t.Errorf("create = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDeleteExpenseOwnership(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), nil, nil, nil)

	id, err := svc.CreateExpense(ctx, validExpense("u1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteExpense(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user delete = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteExpense(ctx, "u1", id); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}

func TestWritesNotifyHub(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	hub := stream.NewHub(s, nil)
	svc := NewExpenseService(s, hub, nil, nil)

	ch, cancel := hub.Subscribe(ctx, "u1")
	defer cancel()
	if snap := <-ch; len(snap.Expenses) != 0 {
		t.Fatalf("initial snapshot holds %d records", len(snap.Expenses))
	}

	id, err := svc.CreateExpense(ctx, validExpense("u1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case snap := <-ch:
		if len(snap.Expenses) != 1 {
			t.Errorf("snapshot after create holds %d records, want 1", len(snap.Expenses))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}

	if err := svc.DeleteExpense(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	select {
	case snap := <-ch:
		if len(snap.Expenses) != 0 {
			t.Errorf("snapshot after delete holds %d records, want 0", len(snap.Expenses))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after delete")
	}
}
