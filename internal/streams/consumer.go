package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InboundConsumer consumes feedback submissions from the inbound Redis Stream.
type InboundConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
}

// NewInboundConsumer creates a consumer group member on the inbound feedback
// stream. The consumer name is made unique per process instance.
func NewInboundConsumer(redisURL string) (*InboundConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	client := redis.NewClient(opts)

	// Create consumer group on the inbound stream. Start ID "0" means read
	// from the beginning if the group is new.
	err = client.XGroupCreateMkStream(context.Background(), StreamFeedbackInbound, GroupIngestWorkers, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	// Ignore BUSYGROUP error - group already exists

	return &InboundConsumer{
		rdb:          client,
		groupName:    GroupIngestWorkers,
		consumerName: "ingest-" + uuid.New().String()[:8],
	}, nil
}

// Consume runs a blocking loop reading feedback submissions from the stream
// and passing them to handler. Handler errors leave the message pending for
// redelivery; successes are acknowledged.
func (c *InboundConsumer) Consume(ctx context.Context, handler func(InboundFeedback) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamFeedbackInbound, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err == redis.Nil {
			// No messages available, continue loop
			continue
		}

		if err != nil {
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration — this is normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			slog.Error("Failed to read from stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				payloadStr, ok := message.Values["payload"].(string)
				if !ok {
					slog.Error("Invalid message payload", "message_id", message.ID)
					c.ack(ctx, message.ID)
					continue
				}

				var submission InboundFeedback
				if err := json.Unmarshal([]byte(payloadStr), &submission); err != nil {
					slog.Error("Failed to unmarshal submission", "error", err, "message_id", message.ID)
					c.ack(ctx, message.ID)
					continue
				}

				if err := handler(submission); err != nil {
					slog.Error("Handler failed", "error", err, "source", submission.Source)
					// Message stays in PEL for retry, don't ACK
					continue
				}

				c.ack(ctx, message.ID)
			}
		}
	}
}

func (c *InboundConsumer) ack(ctx context.Context, messageID string) {
	if err := c.rdb.XAck(ctx, StreamFeedbackInbound, c.groupName, messageID).Err(); err != nil {
		slog.Error("Failed to ACK message", "error", err, "message_id", messageID)
	}
}

// Close closes the Redis client connection.
func (c *InboundConsumer) Close() error {
	return c.rdb.Close()
}

// StartInboundConsumer starts the inbound consumer in a background goroutine
// and returns a stop function.
func StartInboundConsumer(redisURL string, handler func(InboundFeedback) error) (stop func(), err error) {
	consumer, err := NewInboundConsumer(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create inbound consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := consumer.Consume(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("Inbound consumer stopped with error", "error", err)
			}
		}
	}()

	slog.Info("Inbound feedback consumer started", "stream", StreamFeedbackInbound)

	return func() {
		cancel()
		consumer.Close()
	}, nil
}
