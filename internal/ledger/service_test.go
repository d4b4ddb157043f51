package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pantry/internal/cache"
	"pantry/internal/core"
	"pantry/internal/groupctx"
	"pantry/internal/store"
	"pantry/internal/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	c := cache.NewLRUCache[[]core.Transaction](100, time.Minute)
	groups := groupctx.Static{
		User:    groupctx.User{ID: "u1", Name: "Ada"},
		GroupID: "house",
	}
	return New(st, c, groups, nil, nil, Options{}), st
}

func milk() core.ProductRef {
	return core.ProductRef{ID: "p1", Name: "Milk", Category: "dairy", Location: "fridge"}
}

func TestRecordTransactionAssignsIdentity(t *testing.T) {
	svc, _ := newService(t)

	tx, err := svc.RecordAdd(context.Background(), milk(), 10, 0, 2.0, nil)
	if err != nil {
		t.Fatalf("record add: %v", err)
	}
	if tx.ID == "" || tx.Timestamp == 0 {
		t.Fatalf("expected assigned id and timestamp, got %+v", tx)
	}
	if tx.UserID != "u1" || tx.GroupID != "house" {
		t.Fatalf("expected resolved user and group, got %+v", tx)
	}
	if tx.NewQuantity != 10 || tx.QuantityChange != 10 {
		t.Fatalf("wrapper must compute quantities, got %+v", tx)
	}
}

func TestRecordTransactionRejectsBeforeWrite(t *testing.T) {
	svc, st := newService(t)

	_, err := svc.RecordTransaction(context.Background(), core.TransactionInput{
		ProductName:      "Milk",
		Type:             core.TypeAdd,
		QuantityChange:   10,
		PreviousQuantity: 0,
		NewQuantity:      5, // violates the arithmetic invariant
	})
	if !errors.Is(err, core.ErrQuantityMismatch) {
		t.Fatalf("expected ErrQuantityMismatch, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("rejected input must not reach the store")
	}
}

func TestRecordWrappersComputeQuantities(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	consume, err := svc.RecordConsumption(ctx, milk(), 4, 10)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consume.QuantityChange != -4 || consume.NewQuantity != 6 {
		t.Fatalf("unexpected consumption quantities: %+v", consume)
	}

	update, err := svc.RecordUpdate(ctx, milk(), 6, 9)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if update.QuantityChange != 3 || update.NewQuantity != 9 {
		t.Fatalf("unexpected update quantities: %+v", update)
	}

	expire, err := svc.RecordExpiration(ctx, milk(), 9, 9, nil)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expire.QuantityChange != -9 || expire.NewQuantity != 0 {
		t.Fatalf("unexpected expiration quantities: %+v", expire)
	}
}

func TestGetTransactionsOrderingAndLimit(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if _, err := svc.RecordAdd(ctx, milk(), float64(i+1), 0, 1, nil); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	out, err := svc.GetTransactions(ctx, core.Query{Limit: 5})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 results, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp > out[i-1].Timestamp {
			t.Fatalf("results must be non-increasing by timestamp")
		}
	}
	// The 5 most recent adds carry the largest quantities.
	if out[0].QuantityChange != 20 || out[4].QuantityChange != 16 {
		t.Fatalf("limit must keep the most recent transactions, got %+v", out)
	}
}

func TestGetTransactionsClientSideFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	bread := core.ProductRef{ID: "p2", Name: "Bread", Category: "bakery", Location: "pantry"}
	if _, err := svc.RecordAdd(ctx, milk(), 10, 0, 2, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordAdd(ctx, bread, 2, 0, 1, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.RecordConsumption(ctx, milk(), 3, 10); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := svc.GetTransactions(ctx, core.Query{
		Categories: []string{"dairy"},
		Types:      []core.TransactionType{core.TypeConsume},
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 1 || out[0].Type != core.TypeConsume || out[0].Category != "dairy" {
		t.Fatalf("expected single dairy consumption, got %+v", out)
	}
}

// A read immediately after a write must reflect the new transaction; the
// mutation invalidates the group's cache entries.
func TestRecordInvalidatesGroupCache(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.RecordAdd(ctx, milk(), 10, 0, 2, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	first, err := svc.GetTransactions(ctx, core.Query{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(first))
	}

	// This read is now cached. A new write must not serve the stale entry.
	if _, err := svc.RecordConsumption(ctx, milk(), 4, 10); err != nil {
		t.Fatalf("record: %v", err)
	}
	second, err := svc.GetTransactions(ctx, core.Query{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected fresh read of 2 transactions, got %d", len(second))
	}
}

func TestGetTransactionsNoGroupContext(t *testing.T) {
	st := memory.New()
	svc := New(st, nil, groupctx.Static{User: groupctx.User{ID: "u1"}}, nil, nil, Options{})

	out, err := svc.GetTransactions(context.Background(), core.Query{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", out)
	}
}

func TestRecordRequiresUserContext(t *testing.T) {
	st := memory.New()
	svc := New(st, nil, groupctx.Static{}, nil, nil, Options{})

	_, err := svc.RecordAdd(context.Background(), milk(), 1, 0, 0, nil)
	if !errors.Is(err, core.ErrNoUserContext) {
		t.Fatalf("expected ErrNoUserContext, got %v", err)
	}
}

func TestRecordAllowList(t *testing.T) {
	st := memory.New()
	groups := groupctx.Static{User: groupctx.User{ID: "u1"}, GroupID: "house"}
	svc := New(st, nil, groups, nil, nil, Options{
		AllowedCategories: []string{"dairy"},
		AllowedLocations:  []string{"fridge"},
	})

	if _, err := svc.RecordAdd(context.Background(), milk(), 1, 0, 0, nil); err != nil {
		t.Fatalf("allowed category rejected: %v", err)
	}
	badCategory := core.ProductRef{Name: "Soap", Category: "cleaning", Location: "fridge"}
	if _, err := svc.RecordAdd(context.Background(), badCategory, 1, 0, 0, nil); !errors.Is(err, core.ErrCategoryNotAllowed) {
		t.Fatalf("expected ErrCategoryNotAllowed, got %v", err)
	}
	badLocation := core.ProductRef{Name: "Cheese", Category: "dairy", Location: "garage"}
	if _, err := svc.RecordAdd(context.Background(), badLocation, 1, 0, 0, nil); !errors.Is(err, core.ErrLocationNotAllowed) {
		t.Fatalf("expected ErrLocationNotAllowed, got %v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("rejected inputs must not reach the store, got %d rows", st.Len())
	}
}

type failingStore struct{ err error }

func (f failingStore) Insert(context.Context, core.Transaction) error { return f.err }
func (f failingStore) Query(context.Context, store.Query) ([]core.Transaction, error) {
	return nil, f.err
}

func TestStoreErrorsPropagate(t *testing.T) {
	storeErr := fmt.Errorf("store unavailable")
	groups := groupctx.Static{User: groupctx.User{ID: "u1"}, GroupID: "house"}
	c := cache.NewLRUCache[[]core.Transaction](10, time.Minute)
	svc := New(failingStore{err: storeErr}, c, groups, nil, nil, Options{})

	if _, err := svc.RecordAdd(context.Background(), milk(), 1, 0, 0, nil); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if _, err := svc.GetTransactions(context.Background(), core.Query{}); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if c.Size() != 0 {
		t.Fatalf("failed reads must not be cached")
	}
}

// Recorded transactions come back with exactly the fields that were written.
func TestAppendOnlyFieldFidelity(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	expiry := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	in := core.TransactionInput{
		ProductID:        "p1",
		ProductName:      "Milk",
		Category:         "dairy",
		Location:         "fridge",
		Type:             core.TypeAdd,
		QuantityChange:   10,
		PreviousQuantity: 0,
		NewQuantity:      10,
		Cost:             2.5,
		ExpiryDate:       &expiry,
		Metadata:         map[string]string{"source": "receipt-scan"},
	}
	recorded, err := svc.RecordTransaction(ctx, in)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := svc.GetTransactions(ctx, core.Query{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(out))
	}
	got := out[0]
	if got.ID != recorded.ID || got.ProductName != "Milk" || got.Cost != 2.5 ||
		got.Metadata["source"] != "receipt-scan" || !got.ExpiryDate.Equal(expiry) {
		t.Fatalf("stored transaction differs from recorded one: %+v", got)
	}
}

func TestMonotonicTimestamps(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 10; i++ {
		tx, err := svc.RecordAdd(ctx, milk(), 1, float64(i), 0, nil)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if tx.Timestamp <= last {
			t.Fatalf("timestamps must be strictly increasing: %d then %d", last, tx.Timestamp)
		}
		last = tx.Timestamp
	}
}

func TestGetTransactionsEmptyResultNeverNil(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// Fresh fetch against an empty store.
	out, err := svc.GetTransactions(ctx, core.Query{GroupID: "house"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}

	// Same query again is served from cache and must behave the same.
	out, err = svc.GetTransactions(ctx, core.Query{GroupID: "house"})
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice from cache, got %#v", out)
	}

	// A scoped query whose client-side filters match nothing must too.
	if _, err := svc.RecordAdd(ctx, milk(), 1, 0, 0, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	out, err = svc.GetTransactions(ctx, core.Query{GroupID: "house", Categories: []string{"frozen"}})
	if err != nil {
		t.Fatalf("filtered get: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice after filtering, got %#v", out)
	}
}

func TestGetTransactionsResultsDoNotAliasCache(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	expiry := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.RecordTransaction(ctx, core.TransactionInput{
		ProductName:      "Milk",
		Category:         "dairy",
		Location:         "fridge",
		Type:             core.TypeAdd,
		QuantityChange:   2,
		PreviousQuantity: 0,
		NewQuantity:      2,
		ExpiryDate:       &expiry,
		Metadata:         map[string]string{"source": "receipt-scan"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	first, err := svc.GetTransactions(ctx, core.Query{GroupID: "house"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first[0].Metadata["source"] = "tampered"
	*first[0].ExpiryDate = first[0].ExpiryDate.AddDate(1, 0, 0)

	second, err := svc.GetTransactions(ctx, core.Query{GroupID: "house"})
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if second[0].Metadata["source"] != "receipt-scan" {
		t.Fatalf("cached metadata was mutated through a returned transaction: %v", second[0].Metadata)
	}
	if !second[0].ExpiryDate.Equal(expiry) {
		t.Fatalf("cached expiry was mutated through a returned transaction: %v", second[0].ExpiryDate)
	}
}
