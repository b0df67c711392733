// Package services orchestrates expense operations across the store, the
// live stream hub and the optional AMQP fan-out.
package services

import (
	"context"
	"fmt"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
	"spendtrack/internal/stream"
)

// ExpenseService is the write path for expenses. The store write decides the
// outcome; stream and AMQP notifications are best effort afterwards.
type ExpenseService struct {
	store      store.ExpenseStore
	hub        *stream.Hub
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewExpenseService(s store.ExpenseStore, hub *stream.Hub, amqpClient *amqp.Client, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		store:      s,
		hub:        hub,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentExpense),
	}
}

// CreateExpense validates and stores an expense, then notifies subscribers.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.AppendExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, e.UserID,
		log.FieldExpenseID, id)

	s.notify(ctx, e.UserID, id, amqp.ChangeCreated)
	return id, nil
}

// DeleteExpense removes one of the user's expenses, then notifies
// subscribers. Deleting another user's expense reads as not found.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID,
		log.FieldExpenseID, id)

	s.notify(ctx, userID, id, amqp.ChangeDeleted)
	return nil
}

// ListExpenses returns the user's full list, newest date first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID)
}

func (s *ExpenseService) notify(ctx context.Context, userID, expenseID, kind string) {
	if s.hub != nil {
		s.hub.Notify(ctx, userID)
	}
	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewExpenseChangeMessage(userID, expenseID, kind)
	if err := s.amqpClient.PublishExpenseChange(ctx, msg); err != nil {
		// The write already succeeded; remote instances catch up on their
		// next read.
		s.logger.WarnContext(ctx, "failed to publish change message",
			log.FieldUserID, userID, "error", err)
	}
}

// Close closes the AMQP connection. The store is owned by the backend and
// closed by its cleanup.
func (s *ExpenseService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp client: %w", err)
		}
	}
	return nil
}
