package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, event Event) error

// ErrMalformedEvent marks a message that can never be processed. Such
// messages are acked and logged instead of being redelivered. Handlers
// wrap it to reject a payload for good.
var ErrMalformedEvent = errors.New("malformed event")

type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryDelay    time.Duration
	claimIdle     time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	RetryDelay    time.Duration
	// ClaimIdle is how long a delivered message may stay unacked before
	// it is claimed and handled again.
	ClaimIdle time.Duration
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.ClaimIdle == 0 {
		config.ClaimIdle = 30 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryDelay:    config.RetryDelay,
		claimIdle:     config.ClaimIdle,
	}
}

// Start consumes the stream until ctx is cancelled. It always returns a
// non-nil error; ctx.Err() on a clean stop.
//
// Messages this consumer left pending in an earlier run are handled first.
// After that, every read is followed by a claim of messages that have sat
// unacked for longer than ClaimIdle, whichever consumer they belong to.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", s.group, err)
	}

	logger := log.WithFields(log.Fields{
		"stream":   s.stream,
		"group":    s.group,
		"consumer": s.consumer,
	})
	logger.Info("Subscriber started")

	if err := s.drainBacklog(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("Error reading pending messages")
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscriber stopping")
			return ctx.Err()
		default:
		}

		err := s.readMessages(ctx)
		if err == nil {
			err = s.reclaimStale(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.WithError(err).Error("Error reading messages")
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
		}
	}
}

// drainBacklog re-reads this consumer's own pending entries, oldest first.
func (s *Subscriber) drainBacklog(ctx context.Context) error {
	start := "0"
	for {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, start},
			Count:    s.batchSize,
			Block:    -1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read pending messages: %w", err)
		}

		n := 0
		for _, stream := range streams {
			for _, message := range stream.Messages {
				s.handle(ctx, message)
				start = message.ID
				n++
			}
		}
		if n == 0 {
			return nil
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil // No messages
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			s.handle(ctx, message)
		}
	}

	return nil
}

// reclaimStale takes over messages idle for longer than claimIdle. This
// covers both retries of this consumer's failures and the backlog of a
// consumer that went away.
func (s *Subscriber) reclaimStale(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to claim idle messages: %w", err)
		}

		for _, message := range messages {
			s.handle(ctx, message)
		}
		if next == "" || next == "0-0" || next == start {
			return nil
		}
		start = next
	}
}

// handle acks a message once it is processed or found malformed. Any other
// failure leaves it pending for a later claim.
func (s *Subscriber) handle(ctx context.Context, message redis.XMessage) {
	entry := log.WithFields(log.Fields{"stream": s.stream, "message_id": message.ID})

	err := s.processMessage(ctx, message)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedEvent):
		entry.WithError(err).Warn("Dropping malformed message")
	default:
		entry.WithError(err).Warn("Failed to process message")
		return
	}

	if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
		entry.WithError(err).Error("Failed to ACK message")
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("%w: message has no event field", ErrMalformedEvent)
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal event: %v", ErrMalformedEvent, err)
	}

	return s.handler(ctx, event)
}
