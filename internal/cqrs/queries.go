package cqrs

// SuggestQuery asks for a suggestion for a free-text prompt.
type SuggestQuery struct {
	Prompt string
}

// FraudCheckQuery asks for an assessment of a single transaction.
// TransactionID is only known when the check comes from the event stream.
type FraudCheckQuery struct {
	TransactionID string
	UserID        string
	Amount        float64
	Type          string
	Timestamp     string
}
