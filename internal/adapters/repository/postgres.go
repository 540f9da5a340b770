package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/bulletin/internal/domain/ranking"
)

const pingTimeout = 5 * time.Second

// PostgresStore reads and updates view counters in PostgreSQL.
//
// Each collection maps to a table:
//
//	CREATE TABLE announcements (
//	    id    BIGSERIAL PRIMARY KEY,
//	    title TEXT   NOT NULL,
//	    views BIGINT NOT NULL DEFAULT 0
//	);
//	CREATE INDEX announcements_views_idx ON announcements (views DESC, id ASC);
type PostgresStore struct {
	db     *sql.DB
	tables map[ranking.Collection]string

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// OpenPostgres connects with lib/pq and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	s := NewPostgresStore(db, opts...)
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing handle.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db: db,
		tables: map[ranking.Collection]string{
			ranking.Announcements: "announcements",
			ranking.Events:        "events",
		},
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxLifetime: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) table(c ranking.Collection) (string, error) {
	t, ok := s.tables[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ranking.ErrUnknownCollection, c)
	}
	return pq.QuoteIdentifier(t), nil
}

func (s *PostgresStore) TopByViews(ctx context.Context, c ranking.Collection, limit int) ([]Record, error) {
	table, err := s.table(c)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, views FROM `+table+` ORDER BY views DESC, id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top %s: %w", c, err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Views); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", c, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", c, err)
	}
	return out, nil
}

func (s *PostgresStore) IncrementViews(ctx context.Context, c ranking.Collection, id int64, delta int64) error {
	table, err := s.table(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET views = views + $1 WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("incrementing %s/%d: %w", c, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("incrementing %s/%d: %w", c, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%d", ErrNotFound, c, id)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, c ranking.Collection) (int, error) {
	table, err := s.table(c)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c, err)
	}
	return n, nil
}

// Migrate creates the collection tables and their ranking index if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range ranking.Collections {
			raw := s.tables[c]
			table := pq.QuoteIdentifier(raw)
			index := pq.QuoteIdentifier(raw + "_views_idx")
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS ` + table + ` (
					id    BIGSERIAL PRIMARY KEY,
					title TEXT   NOT NULL,
					views BIGINT NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX IF NOT EXISTS ` + index + ` ON ` + table + ` (views DESC, id ASC)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migrating %s: %w", c, err)
				}
			}
		}
		return nil
	})
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
