package store

import (
	"context"
	"time"

	"pantry/internal/core"
)

// Query is the filter set the durable store applies server-side: group
// equality, timestamp range, descending order by timestamp and a result
// limit. Everything finer-grained is filtered by the ledger.
type Query struct {
	GroupID string
	Start   *time.Time
	End     *time.Time
	Limit   int
}

// TransactionStore is the durable, append-only source of truth for
// transactions. Implementations must return results sorted by timestamp
// descending and never mutate stored documents.
type TransactionStore interface {
	Insert(ctx context.Context, tx core.Transaction) error
	Query(ctx context.Context, q Query) ([]core.Transaction, error)
}
