// Package ledger is the append-only write path and filtered read path over
// the durable transaction store. It owns the group-scoped read cache.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pantry/internal/cache"
	"pantry/internal/core"
	"pantry/internal/groupctx"
	applog "pantry/internal/log"
	"pantry/internal/store"
)

// EventPublisher is notified after a transaction is durably recorded.
// Publishing is best-effort; failures never fail the mutation.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error
}

// Options tunes validation. Empty allow-lists accept any caller-defined
// category or location string.
type Options struct {
	AllowedCategories []string
	AllowedLocations  []string
}

type Service struct {
	store  store.TransactionStore
	cache  cache.Cache[[]core.Transaction]
	groups groupctx.Provider
	events EventPublisher
	logger *applog.Logger
	opts   Options

	mu     sync.Mutex
	lastTS int64

	invMu        sync.Mutex
	invalidators []cache.PrefixDeleter
}

// RegisterInvalidator adds a cache whose group-prefixed entries must be
// dropped whenever a transaction is recorded for that group. Report caches
// register themselves here.
func (s *Service) RegisterInvalidator(d cache.PrefixDeleter) {
	if d == nil {
		return
	}
	s.invMu.Lock()
	s.invalidators = append(s.invalidators, d)
	s.invMu.Unlock()
}

// New constructs the ledger service. events may be nil when no broker is
// configured.
func New(st store.TransactionStore, c cache.Cache[[]core.Transaction], groups groupctx.Provider, events EventPublisher, logger *applog.Logger, opts Options) *Service {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentLedger})
	}
	return &Service{
		store:  st,
		cache:  c,
		groups: groups,
		events: events,
		logger: logger.WithComponent(applog.ComponentLedger),
		opts:   opts,
	}
}

// RecordTransaction validates the input, assigns identity and timestamp when
// absent, persists the transaction and invalidates the group's cache entries.
// The write succeeds before invalidation happens, so a read immediately after
// a successful record is guaranteed a cache miss and fresh data.
func (s *Service) RecordTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		ID:               in.ID,
		ProductID:        in.ProductID,
		ProductName:      in.ProductName,
		Category:         in.Category,
		Location:         in.Location,
		Type:             in.Type,
		QuantityChange:   in.QuantityChange,
		PreviousQuantity: in.PreviousQuantity,
		NewQuantity:      in.NewQuantity,
		Cost:             in.Cost,
		ExpiryDate:       in.ExpiryDate,
		UserID:           in.UserID,
		UserName:         in.UserName,
		GroupID:          in.GroupID,
		Timestamp:        in.Timestamp,
		Metadata:         in.Metadata,
	}

	if tx.UserID == "" {
		u, ok := s.groups.CurrentUser(ctx)
		if !ok {
			return core.Transaction{}, core.ErrNoUserContext
		}
		tx.UserID, tx.UserName = u.ID, u.Name
	}
	if tx.GroupID == "" {
		if gid, ok := s.groups.CurrentGroup(ctx); ok {
			tx.GroupID = gid
		}
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkAllowed(tx); err != nil {
		return core.Transaction{}, err
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = s.nextTimestamp()
	}

	if err := s.store.Insert(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	s.InvalidateGroup(tx.GroupID)

	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, tx); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish transaction event",
				applog.FieldTransactionID, tx.ID,
				applog.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		applog.FieldTransactionID, tx.ID,
		applog.FieldType, string(tx.Type),
		applog.FieldProduct, tx.ProductName,
		applog.FieldQuantity, tx.QuantityChange,
		applog.FieldGroupID, tx.GroupID)

	return tx, nil
}

// RecordAdd records new quantity entering inventory.
func (s *Service) RecordAdd(ctx context.Context, p core.ProductRef, quantity, previousQuantity, cost float64, expiry *time.Time) (core.Transaction, error) {
	return s.RecordTransaction(ctx, core.TransactionInput{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Category:         p.Category,
		Location:         p.Location,
		Type:             core.TypeAdd,
		QuantityChange:   quantity,
		PreviousQuantity: previousQuantity,
		NewQuantity:      previousQuantity + quantity,
		Cost:             cost,
		ExpiryDate:       expiry,
	})
}

// RecordUpdate records a quantity correction; newQuantity may be above or
// below the previous one.
func (s *Service) RecordUpdate(ctx context.Context, p core.ProductRef, previousQuantity, newQuantity float64) (core.Transaction, error) {
	return s.RecordTransaction(ctx, core.TransactionInput{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Category:         p.Category,
		Location:         p.Location,
		Type:             core.TypeUpdate,
		QuantityChange:   newQuantity - previousQuantity,
		PreviousQuantity: previousQuantity,
		NewQuantity:      newQuantity,
	})
}

// RecordConsumption records quantity used up by the household.
func (s *Service) RecordConsumption(ctx context.Context, p core.ProductRef, quantity, previousQuantity float64) (core.Transaction, error) {
	return s.RecordTransaction(ctx, core.TransactionInput{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Category:         p.Category,
		Location:         p.Location,
		Type:             core.TypeConsume,
		QuantityChange:   -quantity,
		PreviousQuantity: previousQuantity,
		NewQuantity:      previousQuantity - quantity,
	})
}

// RecordExpiration records quantity thrown away past its expiry date.
func (s *Service) RecordExpiration(ctx context.Context, p core.ProductRef, quantity, previousQuantity float64, expiry *time.Time) (core.Transaction, error) {
	return s.RecordTransaction(ctx, core.TransactionInput{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Category:         p.Category,
		Location:         p.Location,
		Type:             core.TypeExpire,
		QuantityChange:   -quantity,
		PreviousQuantity: previousQuantity,
		NewQuantity:      previousQuantity - quantity,
		ExpiryDate:       expiry,
	})
}

// GetTransactions returns the transactions matching the query, sorted by
// timestamp descending. The result is never nil. When the query names no
// group and the caller has no group context, the result is empty.
func (s *Service) GetTransactions(ctx context.Context, q core.Query) ([]core.Transaction, error) {
	if q.GroupID == "" {
		gid, ok := s.groups.CurrentGroup(ctx)
		if !ok {
			return []core.Transaction{}, nil
		}
		q.GroupID = gid
	}

	key := q.CacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return copyTransactions(cached), nil
		}
	}

	fetched, err := s.store.Query(ctx, store.Query{
		GroupID: q.GroupID,
		Start:   q.Start,
		End:     q.End,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(fetched))
	for _, tx := range fetched {
		if q.Matches(tx) {
			out = append(out, tx)
		}
	}

	if s.cache != nil {
		s.cache.Set(key, out)
	}
	return copyTransactions(out), nil
}

// copyTransactions returns an independent, never-nil result slice. Metadata
// maps and expiry pointers are cloned so callers cannot mutate cached values.
func copyTransactions(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ExpiryDate != nil {
			expiry := *tx.ExpiryDate
			tx.ExpiryDate = &expiry
		}
		if tx.Metadata != nil {
			metadata := make(map[string]string, len(tx.Metadata))
			for k, v := range tx.Metadata {
				metadata[k] = v
			}
			tx.Metadata = metadata
		}
		out = append(out, tx)
	}
	return out
}

// InvalidateGroup drops every cached value for the group. The group
// membership collaborator calls this on membership changes.
func (s *Service) InvalidateGroup(groupID string) {
	prefix := core.GroupKeyPrefix(groupID)
	var n int
	if s.cache != nil {
		n += s.cache.DeletePrefix(prefix)
	}
	s.invMu.Lock()
	invalidators := s.invalidators
	s.invMu.Unlock()
	for _, inv := range invalidators {
		n += inv.DeletePrefix(prefix)
	}
	if n > 0 {
		s.logger.Debug("Invalidated group cache entries",
			applog.FieldGroupID, groupID,
			applog.FieldCount, n)
	}
}

// ResolveGroup resolves an explicit group id, falling back to the caller's
// current group context. ok reports whether any scope is available.
func (s *Service) ResolveGroup(ctx context.Context, groupID string) (string, bool) {
	if groupID != "" {
		return groupID, true
	}
	return s.groups.CurrentGroup(ctx)
}

func (s *Service) checkAllowed(tx core.Transaction) error {
	if len(s.opts.AllowedCategories) > 0 && !contains(s.opts.AllowedCategories, tx.Category) {
		return fmt.Errorf("%w: %q", core.ErrCategoryNotAllowed, tx.Category)
	}
	if len(s.opts.AllowedLocations) > 0 && !contains(s.opts.AllowedLocations, tx.Location) {
		return fmt.Errorf("%w: %q", core.ErrLocationNotAllowed, tx.Location)
	}
	return nil
}

// nextTimestamp assigns strictly increasing millisecond timestamps even when
// two mutations land within the same millisecond.
func (s *Service) nextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= s.lastTS {
		now = s.lastTS + 1
	}
	s.lastTS = now
	return now
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
