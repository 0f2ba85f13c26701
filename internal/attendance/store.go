package attendance

import (
	"context"
	"time"
)

// SortOrder orders range queries by check-in
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// RecordStore is the persistence collaborator. Implementations return
// records already materialized; unparseable timestamps are kept as
// invalid Timestamps rather than failing the query.
type RecordStore interface {
	// ListRange returns the owner's records with check-in in [from, to]
	ListRange(ctx context.Context, ownerID string, from, to time.Time, order SortOrder) ([]Record, error)

	// Create inserts a record and returns it with its assigned ID
	Create(ctx context.Context, rec Record) (Record, error)

	// Update replaces the record with rec.ID; ErrRecordNotFound if absent
	Update(ctx context.Context, rec Record) (Record, error)
}
