package stats

import (
	"math"
	"sort"
	"time"

	"pantry/internal/core"
)

// AnalyzeCategories groups transactions by category and derives per-category
// statistics. The result is sorted by total value, highest first.
//
// Monthly growth uses a rolling last-30-days-vs-prior-30-days window anchored
// to the current time regardless of the window the transactions were queried
// for; see AnalyzeCategoriesAt.
func AnalyzeCategories(txs []core.Transaction) []CategoryStatistics {
	return AnalyzeCategoriesAt(txs, time.Now())
}

// AnalyzeCategoriesAt is AnalyzeCategories with an explicit reference time for
// the rolling growth window.
func AnalyzeCategoriesAt(txs []core.Transaction, now time.Time) []CategoryStatistics {
	groups := groupTransactions(txs, func(tx core.Transaction) string { return tx.Category })

	out := make([]CategoryStatistics, 0, len(groups))
	for _, g := range groups {
		agg := aggregate(g.txs)
		out = append(out, CategoryStatistics{
			Category:            g.key,
			TotalItems:          agg.totalItems,
			TotalValue:          agg.totalValue,
			AverageQuantity:     safeDiv(agg.totalItems, float64(agg.distinctProducts)),
			MostAddedProduct:    agg.mostAdded,
			MostConsumedProduct: agg.mostConsumed,
			ExpirationRate:      safeDiv(agg.expiredQty, agg.addedQty) * 100,
			CostPerItem:         safeDiv(agg.totalValue, agg.totalItems),
			Trend:               classifyTrend(g.txs),
			MonthlyGrowth:       rollingGrowth(g.txs, now),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// keyedTransactions preserves first-encountered ordering of group keys so ties
// resolve deterministically.
type keyedTransactions struct {
	key string
	txs []core.Transaction
}

func groupTransactions(txs []core.Transaction, key func(core.Transaction) string) []keyedTransactions {
	index := make(map[string]int)
	var groups []keyedTransactions
	for _, tx := range txs {
		k := key(tx)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, keyedTransactions{key: k})
		}
		groups[i].txs = append(groups[i].txs, tx)
	}
	return groups
}

type aggregation struct {
	totalItems       float64
	totalValue       float64
	addedQty         float64
	consumedQty      float64
	expiredQty       float64
	removedQty       float64 // all outbound quantity
	distinctProducts int
	mostAdded        string
	mostConsumed     string
}

func aggregate(txs []core.Transaction) aggregation {
	var agg aggregation
	products := make(map[string]struct{})
	addedBy := make(map[string]float64)
	consumedBy := make(map[string]float64)

	for _, tx := range txs {
		qty := math.Abs(tx.QuantityChange)
		agg.totalItems += qty
		agg.totalValue += qty * tx.Cost
		products[tx.ProductName] = struct{}{}

		switch tx.Type {
		case core.TypeAdd:
			agg.addedQty += qty
			addedBy[tx.ProductName] += qty
		case core.TypeConsume:
			agg.consumedQty += qty
			consumedBy[tx.ProductName] += qty
		case core.TypeExpire:
			agg.expiredQty += qty
		}
		if tx.Type.Outbound() {
			agg.removedQty += qty
		}
	}

	agg.distinctProducts = len(products)
	agg.mostAdded = topProductBy(txs, core.TypeAdd, addedBy)
	agg.mostConsumed = topProductBy(txs, core.TypeConsume, consumedBy)
	return agg
}

// topProductBy returns the product with the highest summed quantity for the
// given type, ties broken by first encounter in the transaction list.
func topProductBy(txs []core.Transaction, typ core.TransactionType, sums map[string]float64) string {
	var best string
	bestQty := 0.0
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		if _, ok := seen[tx.ProductName]; ok {
			continue
		}
		seen[tx.ProductName] = struct{}{}
		if q := sums[tx.ProductName]; q > bestQty {
			best, bestQty = tx.ProductName, q
		}
	}
	return best
}

// classifyTrend splits a group's transactions into chronological halves and
// compares summed absolute quantity. More than +10% is increasing, less than
// -10% decreasing, anything else stable.
func classifyTrend(txs []core.Transaction) Trend {
	if len(txs) < 2 {
		return TrendStable
	}
	ordered := append([]core.Transaction(nil), txs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp < ordered[j].Timestamp })

	half := len(ordered) / 2
	var first, second float64
	for _, tx := range ordered[:half] {
		first += math.Abs(tx.QuantityChange)
	}
	for _, tx := range ordered[half:] {
		second += math.Abs(tx.QuantityChange)
	}

	if first == 0 {
		if second > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (second - first) / first
	switch {
	case change > trendDeltaPct:
		return TrendIncreasing
	case change < -trendDeltaPct:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// rollingGrowth compares absolute activity in the last 30 days against the
// preceding 30 days, as a percentage. Zero prior-window activity yields 0.
func rollingGrowth(txs []core.Transaction, now time.Time) float64 {
	windowStart := now.Add(-growthWindow)
	priorStart := now.Add(-2 * growthWindow)

	var last, prior float64
	for _, tx := range txs {
		ts := tx.Time()
		switch {
		case ts.After(windowStart) && !ts.After(now):
			last += math.Abs(tx.QuantityChange)
		case ts.After(priorStart) && !ts.After(windowStart):
			prior += math.Abs(tx.QuantityChange)
		}
	}
	if prior == 0 {
		return 0
	}
	return (last - prior) / prior * 100
}

// safeDiv treats a zero denominator as zero instead of an error or Inf.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
