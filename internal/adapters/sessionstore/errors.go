package sessionstore

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrSessionBackend = errors.New("session backend unavailable")
)
