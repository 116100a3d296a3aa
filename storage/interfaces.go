package storage

import "drspark-watcher/models"

// SeenStore is the durable dedup ledger any backend must satisfy.
// RecordIfNew must be atomic per id: check presence and, if absent, insert a
// SeenEntry stamped with the current time, returning true only for the insert
// that actually happened. IsKnown is a side-effect-free point lookup.
type SeenStore interface {
	IsKnown(id string) (bool, error)
	RecordIfNew(item *models.Item) (bool, error)
	Close() error
}
