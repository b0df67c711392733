package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change kinds carried by ExpenseChangeMessage.
const (
	ChangeCreated = "created"
	ChangeDeleted = "deleted"
)

// ExpenseChangeMessage announces that one user's expense list changed.
// Consumers re-read the list from their own store; the message carries no
// expense data.
type ExpenseChangeMessage struct {
	UserID    string    `json:"user_id"`
	ExpenseID string    `json:"expense_id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangeMessage creates a change message stamped with now.
func NewExpenseChangeMessage(userID, expenseID, kind string) *ExpenseChangeMessage {
	return &ExpenseChangeMessage{
		UserID:    userID,
		ExpenseID: expenseID,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON parses a message from JSON bytes.
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("change message missing user_id")
	}
	return &msg, nil
}
