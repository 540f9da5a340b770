package kafka

import "errors"

// ErrRetryable marks handler failures that should redeliver the message.
var ErrRetryable = errors.New("retryable")
