package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrUnknownRole = errors.New("unknown role")
)
