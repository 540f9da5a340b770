// Package repository stores rankable announcements and events.
package repository

import (
	"context"

	"github.com/okian/bulletin/internal/domain/ranking"
)

// Record is the stored shape of an announcement or event.
type Record = ranking.Record

// Store provides read/write access to view counters.
type Store interface {
	// TopByViews returns up to limit records of c ordered by views DESC, id ASC.
	TopByViews(ctx context.Context, c ranking.Collection, limit int) ([]Record, error)

	// IncrementViews adds delta to the view counter of one record.
	// Returns ErrNotFound if the record does not exist.
	IncrementViews(ctx context.Context, c ranking.Collection, id int64, delta int64) error

	// Count returns the number of records in c.
	Count(ctx context.Context, c ranking.Collection) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
