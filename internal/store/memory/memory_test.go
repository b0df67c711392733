package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

func newExpense(cents int64, d core.Date, userID string) core.Expense {
	return core.Expense{
		Amount:   core.Money{Cents: cents},
		Category: core.Food,
		Date:     d,
		UserID:   userID,
	}
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	today := core.Today()

	id1, err := s.AppendExpense(ctx, newExpense(1000, core.DateOf(today.AddDate(0, 0, -1)), "u1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := s.AppendExpense(ctx, newExpense(2000, today, "u1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.AppendExpense(ctx, newExpense(500, today, "u2")); err != nil {
		t.Fatalf("append other user: %v", err)
	}

	list, err := s.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list returned %d records, want 2", len(list))
	}
	if list[0].ID != id2 || list[1].ID != id1 {
		t.Errorf("list order = %s, %s; want newest date first", list[0].ID, list[1].ID)
	}

	if err := s.DeleteExpense(ctx, "u1", id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListExpenses(ctx, "u1")
	if len(list) != 1 {
		t.Errorf("list after delete returned %d records, want 1", len(list))
	}
}

func TestAppendExpenseValidates(t *testing.T) {
	s := New()
	bad := newExpense(-5, core.Today(), "u1")
	if _, err := s.AppendExpense(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("append invalid = %v, want ErrInvalidAmount", err)
	}
}

func TestDeleteExpenseScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.AppendExpense(ctx, newExpense(1000, core.Today(), "u1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteExpense(ctx, "u2", id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteExpense(ctx, "u1", "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id delete = %v, want ErrNotFound", err)
	}

	list, _ := s.ListExpenses(ctx, "u1")
	if len(list) != 1 {
		t.Errorf("record should survive a cross-user delete")
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.CreateUser(ctx, " Alice@Example.com ", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}

	if _, err := s.CreateUser(ctx, "alice@example.com", "hash2"); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("duplicate email = %v, want ErrEmailTaken", err)
	}

	got, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil || got.ID != u.ID {
		t.Errorf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := s.GetUserByEmail(ctx, "bob@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUser(ctx, u.ID); err != nil {
		t.Errorf("GetUser: %v", err)
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := New()

	live := core.Session{Token: "tok-live", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := core.Session{Token: "tok-old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := s.GetSession(ctx, "tok-live")
	if err != nil || got.UserID != "u1" {
		t.Errorf("GetSession = %+v, %v", got, err)
	}
	if _, err := s.GetSession(ctx, "tok-old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session = %v, want ErrNotFound", err)
	}

	if err := s.DeleteSession(ctx, "tok-live"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := s.GetSession(ctx, "tok-live"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted session = %v, want ErrNotFound", err)
	}
}
