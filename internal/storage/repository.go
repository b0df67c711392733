// Package storage is the sqlite-backed store. The schema is managed with
// embedded golang-migrate migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	e.ID = auth.NewID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount_cents, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.Cents, string(e.Category), e.Description,
		e.Date.ISO(), e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return e.ID, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, category, description, date, created_at
		FROM expenses
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			cents     int64
			category  string
			date      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &category, &e.Description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = core.Money{Cents: cents}
		e.Category = core.Category(category)
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse expense created_at %q: %w", createdAt, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	u := core.User{
		ID:           auth.NewID(),
		Email:        auth.NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, store.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = ?`,
		auth.NormalizeEmail(email),
	))
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = ?`,
		id,
	))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, store.ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.User{}, fmt.Errorf("parse user created_at %q: %w", createdAt, err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		s         core.Session
		expiresAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at
		FROM sessions WHERE token = ?`,
		token,
	).Scan(&s.Token, &s.UserID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Session{}, store.ErrNotFound
		}
		return core.Session{}, fmt.Errorf("scan session: %w", err)
	}
	if s.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return core.Session{}, fmt.Errorf("parse session expiry %q: %w", expiresAt, err)
	}
	if time.Now().After(s.ExpiresAt) {
		// Expired sessions read as absent; the row is reaped lazily.
		_, _ = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return core.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
