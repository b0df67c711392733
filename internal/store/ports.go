// Package store defines the persistence ports the rest of the application
// depends on. Implementations live in internal/store/memory,
// internal/storage (sqlite) and internal/storage/mongo.
package store

import (
	"context"
	"errors"

	"spendtrack/internal/core"
)

var (
	// ErrNotFound is returned when the requested record does not exist or
	// is not owned by the requesting user.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when creating a user with an email that is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// ExpenseStore persists expenses. Every operation is scoped to one user.
type ExpenseStore interface {
	// AppendExpense stores a validated expense and returns its assigned ID.
	AppendExpense(ctx context.Context, e core.Expense) (string, error)
	// DeleteExpense removes the expense with the given ID if it belongs to
	// userID, returning ErrNotFound otherwise.
	DeleteExpense(ctx context.Context, userID, id string) error
	// ListExpenses returns all of the user's expenses, newest date first.
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
}

// SessionStore persists login sessions keyed by opaque token. Expired
// sessions are treated as absent.
type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Store is the full persistence surface a backend must provide.
type Store interface {
	ExpenseStore
	UserStore
	SessionStore

	Close() error
}
