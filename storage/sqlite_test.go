package storage

import (
	"path/filepath"
	"testing"

	"drspark-watcher/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordIfNewIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	price := 11000
	item := &models.Item{ID: "7654321", Title: "아토믹 레드스터", RawPrice: &price}

	fresh, err := s.RecordIfNew(item)
	if err != nil {
		t.Fatalf("first RecordIfNew: %v", err)
	}
	if !fresh {
		t.Error("first RecordIfNew should return true")
	}
	if item.Date == 0 {
		t.Error("first RecordIfNew must stamp the item date")
	}

	again := &models.Item{ID: "7654321", Title: "아토믹 레드스터", RawPrice: &price}
	fresh, err = s.RecordIfNew(again)
	if err != nil {
		t.Fatalf("second RecordIfNew: %v", err)
	}
	if fresh {
		t.Error("second RecordIfNew should return false")
	}
	if again.Date != 0 {
		t.Error("a known item must not get a new date stamp")
	}

	var n int
	if err := s.db.Get(&n, `SELECT COUNT(1) FROM seen WHERE post_id = ?`, "7654321"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 seen row, got %d", n)
	}
}

func TestRecordIfNewStoresEntry(t *testing.T) {
	s := newTestStore(t)
	price := 250000
	item := &models.Item{ID: "7700001", Title: "살로몬 부츠", RawPrice: &price}

	if _, err := s.RecordIfNew(item); err != nil {
		t.Fatalf("RecordIfNew: %v", err)
	}

	var entry models.SeenEntry
	if err := s.db.Get(&entry, `SELECT post_id, first_seen_ts, product_name, price FROM seen WHERE post_id = ?`, "7700001"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if entry.ProductName != "살로몬 부츠" {
		t.Errorf("product_name: got %q", entry.ProductName)
	}
	if entry.Price == nil || *entry.Price != 250000 {
		t.Errorf("price: got %v", entry.Price)
	}
	if entry.FirstSeenTS != item.Date {
		t.Errorf("first_seen_ts %d != stamped date %d", entry.FirstSeenTS, item.Date)
	}
}

func TestRecordIfNewNilPrice(t *testing.T) {
	s := newTestStore(t)
	item := &models.Item{ID: "7700002", Title: "가격문의 매물"}

	if _, err := s.RecordIfNew(item); err != nil {
		t.Fatalf("RecordIfNew with nil price: %v", err)
	}

	var entry models.SeenEntry
	if err := s.db.Get(&entry, `SELECT post_id, first_seen_ts, product_name, price FROM seen WHERE post_id = ?`, "7700002"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if entry.Price != nil {
		t.Errorf("expected NULL price, got %d", *entry.Price)
	}
}

func TestIsKnown(t *testing.T) {
	s := newTestStore(t)

	known, err := s.IsKnown("7654321")
	if err != nil {
		t.Fatalf("IsKnown: %v", err)
	}
	if known {
		t.Error("fresh store should not know any id")
	}

	if _, err := s.RecordIfNew(&models.Item{ID: "7654321"}); err != nil {
		t.Fatalf("RecordIfNew: %v", err)
	}

	known, err = s.IsKnown("7654321")
	if err != nil {
		t.Fatalf("IsKnown: %v", err)
	}
	if !known {
		t.Error("recorded id should be known")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
