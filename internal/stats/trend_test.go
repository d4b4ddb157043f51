package stats

import (
	"testing"
	"time"

	"pantry/internal/core"
)

func TestTrendDataDayBuckets(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.TypeAdd, "Milk", "dairy", "fridge", 10, 2, day1),
		tx(core.TypeConsume, "Milk", "dairy", "fridge", 4, 2, day1.Add(2*time.Hour)),
		tx(core.TypeExpire, "Bread", "bakery", "pantry", 1, 1, day3),
	}

	out := TrendData(txs, BucketDay)
	if len(out) != 2 {
		t.Fatalf("expected 2 sparse buckets, got %d", len(out))
	}
	first, second := out[0], out[1]
	if first.Bucket != "2024-03-01" || second.Bucket != "2024-03-03" {
		t.Fatalf("unexpected bucket keys %q, %q", first.Bucket, second.Bucket)
	}
	if !first.Start.Before(second.Start) {
		t.Fatalf("buckets must be sorted ascending by start")
	}
	approx(t, first.AddedQuantity, 10, 1e-9, "added")
	approx(t, first.ConsumedQuantity, 4, 1e-9, "consumed")
	approx(t, first.TotalItems, 14, 1e-9, "items")
	approx(t, first.TotalValue, 28, 1e-9, "value")
	approx(t, first.AverageCost, 2, 1e-9, "average cost")
	approx(t, first.ByCategory["dairy"], 14, 1e-9, "category distribution")
	approx(t, first.ByLocation["fridge"], 14, 1e-9, "location distribution")
	approx(t, second.ExpiredQuantity, 1, 1e-9, "expired")
}

func TestTrendDataMonthBuckets(t *testing.T) {
	txs := []core.Transaction{
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)),
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	out := TrendData(txs, BucketMonth)
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets (february absent), got %d", len(out))
	}
	if out[0].Bucket != "2024-01" || out[1].Bucket != "2024-03" {
		t.Fatalf("unexpected keys %q, %q", out[0].Bucket, out[1].Bucket)
	}
	approx(t, out[0].TotalItems, 2, 1e-9, "january items")
}

func TestTrendDataWeekBuckets(t *testing.T) {
	// Wednesday 2024-03-06 and Sunday 2024-03-10 share the Monday 2024-03-04
	// week; Monday 2024-03-11 starts a new one.
	txs := []core.Transaction{
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)),
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)),
		tx(core.TypeAdd, "A", "c", "l", 1, 0, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)),
	}
	out := TrendData(txs, BucketWeek)
	if len(out) != 2 {
		t.Fatalf("expected 2 week buckets, got %d", len(out))
	}
	if out[0].Bucket != "2024-03-04" || out[1].Bucket != "2024-03-11" {
		t.Fatalf("unexpected week keys %q, %q", out[0].Bucket, out[1].Bucket)
	}
	approx(t, out[0].TotalItems, 2, 1e-9, "first week items")
}

func TestTrendDataZeroItemsAverageCost(t *testing.T) {
	txs := []core.Transaction{
		{
			ProductName: "Note",
			Category:    "misc",
			Type:        core.TypeUpdate,
			Timestamp:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
	}
	out := TrendData(txs, BucketDay)
	approx(t, out[0].AverageCost, 0, 1e-9, "zero-item bucket average cost")
}
