package repository

import (
	"time"

	"github.com/okian/bulletin/internal/domain/ranking"
)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSeed preloads records into collection c.
func WithSeed(c ranking.Collection, records ...Record) MemoryOption {
	return func(s *MemoryStore) {
		if _, ok := s.records[c]; !ok {
			return
		}
		for _, r := range records {
			s.records[c][r.ID] = r
		}
	}
}

// PostgresOption configures a PostgresStore connection pool.
type PostgresOption func(*PostgresStore)

// WithMaxOpenConns caps open connections.
func WithMaxOpenConns(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns caps idle connections.
func WithMaxIdleConns(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime recycles connections after d.
func WithConnMaxLifetime(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

// WithTables overrides the table backing a collection.
func WithTables(tables map[ranking.Collection]string) PostgresOption {
	return func(s *PostgresStore) {
		for c, t := range tables {
			if c.Valid() && t != "" {
				s.tables[c] = t
			}
		}
	}
}
