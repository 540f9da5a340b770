package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidLimit       = errors.New("invalid ranking limit")
	ErrUnknownCollection  = errors.New("unknown collection")
)
