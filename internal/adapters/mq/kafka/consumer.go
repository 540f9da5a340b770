// Package kafka consumes view events from a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okian/bulletin/pkg/logger"
)

const (
	defaultRetryDelay = 200 * time.Millisecond
	minBytes          = 1e3
	maxBytes          = 10e6
)

// MessageHandler is invoked for each Kafka message. Returning an error
// wrapping ErrRetryable makes the consumer redeliver the same message;
// any other error skips it.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Reader is the subset of *kafkago.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads messages from a topic and dispatches them to a handler.
type Consumer struct {
	reader     Reader
	handler    MessageHandler
	retryDelay time.Duration
	logger     logger.Logger
}

// NewReader builds a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		StartOffset: kafkago.LastOffset,
	})
}

// NewConsumer creates a Consumer over reader.
func NewConsumer(reader Reader, handler MessageHandler, opts ...Option) *Consumer {
	c := &Consumer{
		reader:     reader,
		handler:    handler,
		retryDelay: defaultRetryDelay,
		logger:     logger.Get().Named("kafka-consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the consume loop until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info(ctx, "consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn(ctx, "closing reader", logger.Error(err))
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info(ctx, "consumer stopping", logger.Error(ctx.Err()))
				return nil
			}
			c.logger.Error(ctx, "failed to fetch message", logger.Error(err))
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		c.logger.Debug(ctx, "message received",
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Int("value_size", len(msg.Value)),
		)

		if !c.handle(ctx, msg) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error(ctx, "failed to commit message",
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
				logger.Error(err),
			)
		}
	}
}

// handle runs the handler until it succeeds, fails permanently, or ctx ends.
// It returns false when ctx ended first.
func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) bool { //nolint:gocritic // hugeParam: kafka-go passes messages by value
	for {
		err := c.handler(ctx, msg.Key, msg.Value)
		switch {
		case err == nil:
			return true
		case errors.Is(err, ErrRetryable):
			c.logger.Warn(ctx, "retrying message", logger.Int64("offset", msg.Offset), logger.Error(err))
			if !c.sleep(ctx) {
				return false
			}
		default:
			c.logger.Error(ctx, "failed to process message",
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
				logger.Error(err),
			)
			return true
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
