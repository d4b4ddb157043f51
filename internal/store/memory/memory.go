// Package memory holds transactions in process memory. It backs tests and the
// default backend when no durable store is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"pantry/internal/core"
	"pantry/internal/store"
)

type Store struct {
	mu  sync.Mutex
	txs []core.Transaction
}

func New() *Store {
	return &Store{}
}

func (s *Store) Insert(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

func (s *Store) Query(_ context.Context, q store.Query) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if tx.GroupID != q.GroupID {
			continue
		}
		if q.Start != nil && tx.Timestamp < q.Start.UnixMilli() {
			continue
		}
		if q.End != nil && tx.Timestamp > q.End.UnixMilli() {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Len reports how many transactions have been inserted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}
