package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date pinned to UTC midnight. All date comparisons in
	// the application happen on calendar days, never on wall-clock instants.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single recorded expense. ID and CreatedAt are assigned by
	// the store; UserID scopes every read and delete.
	Expense struct {
		ID          string
		Amount      Money
		Category    Category
		Description string
		Date        Date
		UserID      string
		CreatedAt   time.Time
	}

	// User is an account that owns expenses.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Session is an authenticated login, identified by an opaque token.
	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrFutureDate      = errors.New("date is in the future")
	ErrEmptyUser       = errors.New("missing owning user")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// Today returns the current UTC calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Within reports whether d falls inside [start, end], both ends inclusive.
func (d Date) Within(start, end Date) bool {
	return !d.Time.Before(start.Time) && !d.Time.After(end.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the invariants every expense must hold before it reaches a
// store: positive amount, known category, a real date no later than today.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Date.After(Today()) {
		return ErrFutureDate
	}
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}
