package storage

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"drspark-watcher/models"
)

// SQLiteStore is the default SeenStore, backed by a single-file database so
// the ledger survives process restarts without any external service.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at path, ensures the seen
// table exists, and returns a ready-to-use store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS seen(
			post_id       TEXT PRIMARY KEY,
			first_seen_ts INTEGER,
			product_name  TEXT,
			price         INTEGER
		)
	`)
	return err
}

// IsKnown reports whether the post id has already been recorded.
func (s *SQLiteStore) IsKnown(id string) (bool, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(1) FROM seen WHERE post_id = ?`, id); err != nil {
		return false, fmt.Errorf("sqlite: lookup %s: %w", id, err)
	}
	return n > 0, nil
}

// RecordIfNew inserts a seen entry for the item unless one already exists.
// The primary-key conflict clause makes the check-then-insert a single atomic
// statement. On a fresh insert the item's Date is stamped with the first-seen
// timestamp.
func (s *SQLiteStore) RecordIfNew(item *models.Item) (bool, error) {
	now := time.Now().Unix()
	res, err := s.db.Exec(`
		INSERT INTO seen(post_id, first_seen_ts, product_name, price)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(post_id) DO NOTHING
	`, item.ID, now, item.Title, item.RawPrice)
	if err != nil {
		return false, fmt.Errorf("sqlite: record %s: %w", item.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: record %s: %w", item.ID, err)
	}
	if rows == 0 {
		return false, nil
	}

	item.Date = now
	return true, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
