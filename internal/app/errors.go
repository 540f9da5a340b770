package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidView  = errors.New("invalid view event")
	ErrBackpressure = errors.New("view queue full")
	ErrNotStarted   = errors.New("service not started")
)
