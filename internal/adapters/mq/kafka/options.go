package kafka

import (
	"time"

	"github.com/okian/bulletin/pkg/logger"
)

// Option applies a configuration option to the Consumer.
type Option func(*Consumer)

// WithRetryDelay sets the pause before a retryable message is redelivered.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithLogger sets a custom logger for the consumer.
func WithLogger(l logger.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}
