package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eaglebank/ai-engine/internal/cqrs"
	"github.com/eaglebank/ai-engine/internal/events"
	"github.com/eaglebank/ai-engine/internal/models"
	log "github.com/sirupsen/logrus"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// FraudCheckService assesses transactions. The assessment is a mock: every
// transaction is reported as not suspicious with a zero score.
type FraudCheckService struct {
	publisher EventPublisher
}

// NewFraudCheckService accepts a nil publisher, in which case no
// fraud.checked events are emitted.
func NewFraudCheckService(publisher EventPublisher) *FraudCheckService {
	return &FraudCheckService{publisher: publisher}
}

func (s *FraudCheckService) CheckTransaction(ctx context.Context, q cqrs.FraudCheckQuery) (*models.FraudAssessment, error) {
	assessment := &models.FraudAssessment{Suspicious: false, Score: 0.0}

	log.WithFields(log.Fields{
		"user_id":        q.UserID,
		"transaction_id": q.TransactionID,
		"type":           q.Type,
		"suspicious":     assessment.Suspicious,
		"score":          assessment.Score,
	}).Debug("Transaction assessed")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.AIEventsStream, events.FraudChecked, events.FraudCheckedEvent{
			TransactionID: q.TransactionID,
			UserID:        q.UserID,
			Amount:        q.Amount,
			Type:          q.Type,
			Timestamp:     q.Timestamp,
			Suspicious:    assessment.Suspicious,
			Score:         assessment.Score,
		}); err != nil {
			log.WithError(err).WithField("user_id", q.UserID).Warn("Failed to publish fraud.checked event")
		}
	}

	return assessment, nil
}

// HandleTransactionEvent screens transaction.created events from the stream.
// Other event types are ignored. A payload that cannot be decoded, or that
// names no user, is rejected with events.ErrMalformedEvent so the
// subscriber drops it instead of redelivering it.
func (s *FraudCheckService) HandleTransactionEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TransactionCreated {
		return nil
	}
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("%w: failed to re-encode transaction.created payload: %v", events.ErrMalformedEvent, err)
	}
	var data events.TransactionCreatedEvent
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return fmt.Errorf("%w: failed to unmarshal transaction.created event: %v", events.ErrMalformedEvent, err)
	}
	if data.UserID == "" {
		return fmt.Errorf("%w: transaction.created event %q has no userId", events.ErrMalformedEvent, data.TransactionID)
	}

	timestamp := data.Timestamp
	if timestamp == "" && !event.Timestamp.IsZero() {
		timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}

	_, err = s.CheckTransaction(ctx, cqrs.FraudCheckQuery{
		TransactionID: data.TransactionID,
		UserID:        data.UserID,
		Amount:        data.Amount,
		Type:          data.Type,
		Timestamp:     timestamp,
	})
	return err
}
