package stats

import (
	"math"
	"sort"
	"time"

	"pantry/internal/core"
)

const msPerDay = float64(24 * time.Hour / time.Millisecond)

// AnalyzeLocations groups transactions by storage location. assumedCapacity
// bounds the capacity utilization heuristic; values <= 0 fall back to
// DefaultLocationCapacity. Sorted by total value, highest first.
func AnalyzeLocations(txs []core.Transaction, assumedCapacity float64) []LocationStatistics {
	return AnalyzeLocationsAt(txs, assumedCapacity, time.Now())
}

// AnalyzeLocationsAt is AnalyzeLocations with an explicit reference time for
// the rolling growth window.
func AnalyzeLocationsAt(txs []core.Transaction, assumedCapacity float64, now time.Time) []LocationStatistics {
	if assumedCapacity <= 0 {
		assumedCapacity = DefaultLocationCapacity
	}
	groups := groupTransactions(txs, func(tx core.Transaction) string { return tx.Location })

	out := make([]LocationStatistics, 0, len(groups))
	for _, g := range groups {
		agg := aggregate(g.txs)
		out = append(out, LocationStatistics{
			Location:            g.key,
			TotalItems:          agg.totalItems,
			TotalValue:          agg.totalValue,
			MostAddedProduct:    agg.mostAdded,
			MostConsumedProduct: agg.mostConsumed,
			ExpirationRate:      safeDiv(agg.expiredQty, agg.addedQty) * 100,
			CostPerItem:         safeDiv(agg.totalValue, agg.totalItems),
			UtilizationRate:     safeDiv(agg.removedQty, agg.addedQty) * 100,
			AverageStorageDays:  storageSpanDays(g.txs),
			CapacityUtilization: math.Min(agg.totalItems/assumedCapacity, 1) * 100,
			Trend:               classifyTrend(g.txs),
			MonthlyGrowth:       rollingGrowth(g.txs, now),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Location < out[j].Location
	})
	return out
}

// storageSpanDays approximates average storage duration as the span between
// the oldest and newest transaction at the location, in days.
func storageSpanDays(txs []core.Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	minTS, maxTS := txs[0].Timestamp, txs[0].Timestamp
	for _, tx := range txs[1:] {
		if tx.Timestamp < minTS {
			minTS = tx.Timestamp
		}
		if tx.Timestamp > maxTS {
			maxTS = tx.Timestamp
		}
	}
	return float64(maxTS-minTS) / msPerDay
}
