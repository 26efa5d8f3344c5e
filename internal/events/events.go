package events

import "time"

// Event types
const (
	TransactionCreated = "transaction.created"
	FraudChecked       = "fraud.checked"
)

// Stream names
const (
	TransactionEventsStream = "transaction.events"
	AIEventsStream          = "ai.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransactionCreatedEvent is emitted by the transaction service.
// Only the fields needed for screening are decoded.
type TransactionCreatedEvent struct {
	TransactionID string  `json:"transactionId"`
	AccountNumber string  `json:"accountNumber"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Currency      string  `json:"currency"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// FraudCheckedEvent records the outcome of one fraud check.
type FraudCheckedEvent struct {
	TransactionID string  `json:"transactionId,omitempty"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Timestamp     string  `json:"timestamp"`
	Suspicious    bool    `json:"suspicious"`
	Score         float64 `json:"score"`
}
