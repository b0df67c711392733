// Package mongo is the MongoDB-backed store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/store"
)

type Repository struct {
	client   *mongo.Client
	expenses *mongo.Collection
	users    *mongo.Collection
	sessions *mongo.Collection
}

var _ store.Store = (*Repository)(nil)

type expenseDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	AmountCents int64     `bson:"amount_cents"`
	Category    string    `bson:"category"`
	Description string    `bson:"description,omitempty"`
	Date        string    `bson:"date"`
	CreatedAt   time.Time `bson:"created_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type sessionDoc struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// New connects to MongoDB and prepares the collections and indexes.
func New(ctx context.Context, uri, dbName string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	r := &Repository{
		client:   client,
		expenses: db.Collection("expenses"),
		users:    db.Collection("users"),
		sessions: db.Collection("sessions"),
	}
	if err := r.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	_, err = r.expenses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create expense index: %w", err)
	}
	// Mongo reaps expired sessions on its own.
	_, err = r.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	doc := expenseDoc{
		ID:          auth.NewID(),
		UserID:      e.UserID,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Description: e.Description,
		Date:        e.Date.ISO(),
		CreatedAt:   time.Now().UTC(),
	}
	if !e.CreatedAt.IsZero() {
		doc.CreatedAt = e.CreatedAt
	}
	if _, err := r.expenses.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	return doc.ID, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.expenses.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.expenses.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []core.Expense
	for cursor.Next(ctx) {
		var doc expenseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode expense: %w", err)
		}
		date, err := core.ParseDate(doc.Date)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", doc.Date, err)
		}
		out = append(out, core.Expense{
			ID:          doc.ID,
			Amount:      core.Money{Cents: doc.AmountCents},
			Category:    core.Category(doc.Category),
			Description: doc.Description,
			Date:        date,
			UserID:      doc.UserID,
			CreatedAt:   doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	doc := userDoc{
		ID:           auth.NewID(),
		Email:        auth.NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, store.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return core.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.findUser(ctx, bson.M{"email": auth.NormalizeEmail(email)})
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (core.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.User{}, store.ErrNotFound
		}
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return core.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	doc := sessionDoc{Token: s.Token, UserID: s.UserID, ExpiresAt: s.ExpiresAt.UTC()}
	if _, err := r.sessions.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, token string) (core.Session, error) {
	var doc sessionDoc
	if err := r.sessions.FindOne(ctx, bson.M{"_id": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Session{}, store.ErrNotFound
		}
		return core.Session{}, fmt.Errorf("find session: %w", err)
	}
	// The TTL monitor runs about once a minute; expired rows may still be
	// readable in that window.
	if time.Now().After(doc.ExpiresAt) {
		return core.Session{}, store.ErrNotFound
	}
	return core.Session{Token: doc.Token, UserID: doc.UserID, ExpiresAt: doc.ExpiresAt}, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.sessions.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
