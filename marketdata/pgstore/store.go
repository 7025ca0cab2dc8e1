// Package pgstore loads quote snapshots from PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Schema is the table layout the store expects.
const Schema = `
CREATE TABLE IF NOT EXISTS market_quotes (
	asof   DATE             NOT NULL,
	ticker TEXT             NOT NULL,
	value  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (asof, ticker)
);`

const selectQuotes = `SELECT ticker, value FROM market_quotes WHERE asof = $1 AND ticker = ANY($2)`

const upsertQuote = `INSERT INTO market_quotes (asof, ticker, value) VALUES ($1, $2, $3)
ON CONFLICT (asof, ticker) DO UPDATE SET value = EXCLUDED.value`

// Store reads and writes quotes keyed by (asof, ticker).
type Store struct {
	db *sql.DB
}

// Open connects with the lib/pq driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore.Open: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the quotes table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("pgstore.Init: %w", err)
	}
	return nil
}

// Quotes returns the values stored for asof. Tickers with no row are absent
// from the result.
func (s *Store) Quotes(ctx context.Context, asof time.Time, tickers []string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, selectQuotes, asof.Format("2006-01-02"), pq.Array(tickers))
	if err != nil {
		return nil, fmt.Errorf("pgstore.Quotes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(tickers))
	for rows.Next() {
		var ticker string
		var value float64
		if err := rows.Scan(&ticker, &value); err != nil {
			return nil, fmt.Errorf("pgstore.Quotes: scan: %w", err)
		}
		out[ticker] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore.Quotes: %w", err)
	}
	return out, nil
}

// Save upserts a snapshot in one transaction.
func (s *Store) Save(ctx context.Context, asof time.Time, values map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgstore.Save: %w", err)
	}
	day := asof.Format("2006-01-02")
	for ticker, v := range values {
		if _, err := tx.ExecContext(ctx, upsertQuote, day, ticker, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("pgstore.Save: %s: %w", ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgstore.Save: commit: %w", err)
	}
	return nil
}

// IsUndefinedTable reports whether err is Postgres "relation does not exist".
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}
