package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"drspark-watcher/models"
)

// PostgresStore is the alternate SeenStore backend, for deployments that
// already run PostgreSQL and want the ledger off the local disk.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for the server to
// become reachable, ensures the seen table exists, and returns a
// ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS seen(
			post_id       TEXT PRIMARY KEY,
			first_seen_ts BIGINT,
			product_name  TEXT,
			price         INTEGER
		)
	`)
	return err
}

// IsKnown reports whether the post id has already been recorded.
func (s *PostgresStore) IsKnown(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM seen WHERE post_id = $1`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("postgres: lookup %s: %w", id, err)
	}
	return n > 0, nil
}

// RecordIfNew inserts a seen entry for the item unless one already exists,
// stamping the item's Date on a fresh insert.
func (s *PostgresStore) RecordIfNew(item *models.Item) (bool, error) {
	now := time.Now().Unix()
	res, err := s.db.Exec(`
		INSERT INTO seen(post_id, first_seen_ts, product_name, price)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (post_id) DO NOTHING
	`, item.ID, now, item.Title, item.RawPrice)
	if err != nil {
		return false, fmt.Errorf("postgres: record %s: %w", item.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: record %s: %w", item.ID, err)
	}
	if rows == 0 {
		return false, nil
	}

	item.Date = now
	return true, nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
