package stats

import (
	"math"
	"sort"
	"time"

	"pantry/internal/core"
)

// TrendData buckets transactions by calendar period and accumulates per-bucket
// activity. Buckets with no transactions are absent (sparse representation);
// the result is sorted ascending by bucket start.
func TrendData(txs []core.Transaction, bucket Bucket) []TrendDataPoint {
	points := make(map[string]*TrendDataPoint)

	for _, tx := range txs {
		key, start := bucketKey(tx.Time(), bucket)
		p, ok := points[key]
		if !ok {
			p = &TrendDataPoint{
				Bucket:     key,
				Start:      start,
				ByCategory: make(map[string]float64),
				ByLocation: make(map[string]float64),
			}
			points[key] = p
		}

		qty := math.Abs(tx.QuantityChange)
		p.TotalItems += qty
		p.TotalValue += qty * tx.Cost
		switch tx.Type {
		case core.TypeAdd:
			p.AddedQuantity += qty
		case core.TypeConsume:
			p.ConsumedQuantity += qty
		case core.TypeExpire:
			p.ExpiredQuantity += qty
		}
		p.ByCategory[tx.Category] += qty
		p.ByLocation[tx.Location] += qty
	}

	out := make([]TrendDataPoint, 0, len(points))
	for _, p := range points {
		p.AverageCost = safeDiv(p.TotalValue, p.TotalItems)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// bucketKey derives the period key and start timestamp for a transaction
// time. Days key as YYYY-MM-DD, months as YYYY-MM, weeks by the date of their
// Monday start.
func bucketKey(t time.Time, bucket Bucket) (string, time.Time) {
	t = t.UTC()
	switch bucket {
	case BucketMonth:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start
	case BucketWeek:
		start := weekStart(t)
		return start.Format("2006-01-02"), start
	default: // BucketDay
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01-02"), start
	}
}

// weekStart returns midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(weekday - 1))
}
