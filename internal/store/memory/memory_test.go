package memory

import (
	"context"
	"testing"
	"time"

	"pantry/internal/core"
	"pantry/internal/store"
)

func seed(t *testing.T, s *Store, group string, timestamps ...int64) {
	t.Helper()
	for i, ts := range timestamps {
		err := s.Insert(context.Background(), core.Transaction{
			ID:             group + string(rune('a'+i)),
			ProductName:    "P",
			Type:           core.TypeAdd,
			QuantityChange: 1,
			NewQuantity:    1,
			GroupID:        group,
			Timestamp:      ts,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestQueryGroupScopedAndSorted(t *testing.T) {
	s := New()
	seed(t, s, "g1", 100, 300, 200)
	seed(t, s, "g2", 400)

	out, err := s.Query(context.Background(), store.Query{GroupID: "g1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 g1 transactions, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp > out[i-1].Timestamp {
			t.Fatalf("results must be non-increasing by timestamp")
		}
	}
}

func TestQueryDateRangeAndLimit(t *testing.T) {
	s := New()
	seed(t, s, "g1", 100, 200, 300, 400, 500)

	start := time.UnixMilli(200)
	end := time.UnixMilli(400)
	out, err := s.Query(context.Background(), store.Query{GroupID: "g1", Start: &start, End: &end})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected inclusive range of 3, got %d", len(out))
	}

	out, err = s.Query(context.Background(), store.Query{GroupID: "g1", Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[0].Timestamp != 500 || out[1].Timestamp != 400 {
		t.Fatalf("limit must keep the most recent entries, got %+v", out)
	}
}
