// Package catalog seeds the ledger from an existing inventory snapshot. Each
// catalog item becomes one add transaction with a previous quantity of zero.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pantry/internal/core"
	"pantry/internal/ledger"
	applog "pantry/internal/log"
)

// Item is one inventory position in an external snapshot.
type Item struct {
	ProductID string     `json:"productId,omitempty"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Location  string     `json:"location"`
	Quantity  float64    `json:"quantity"`
	Cost      float64    `json:"cost"`
	Expiry    *time.Time `json:"expiry,omitempty"`
}

// Source yields the items to backfill.
type Source interface {
	Items(ctx context.Context) ([]Item, error)
}

// FileSource reads a JSON array of items from disk.
type FileSource struct {
	Path string
}

func (f FileSource) Items(_ context.Context) ([]Item, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return items, nil
}

// Backfill records one add transaction per item and returns how many were
// written. It stops at the first failure; already-written transactions stay,
// the ledger is append-only.
func Backfill(ctx context.Context, src Source, led *ledger.Service, logger *applog.Logger) (int, error) {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentBackfill})
	}

	items, err := src.Items(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	written := 0
	for _, item := range items {
		ref := core.ProductRef{
			ID:       item.ProductID,
			Name:     item.Name,
			Category: item.Category,
			Location: item.Location,
		}
		if _, err := led.RecordAdd(ctx, ref, item.Quantity, 0, item.Cost, item.Expiry); err != nil {
			return written, fmt.Errorf("backfill item %q: %w", item.Name, err)
		}
		written++
	}

	logger.InfoContext(ctx, "Backfill complete", applog.FieldCount, written)
	return written, nil
}
