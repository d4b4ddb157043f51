package stats

import (
	"math"
	"sort"

	"pantry/internal/core"
)

// TopProducts ranks products by total value, highest first. A limit <= 0
// returns the full ranking.
func TopProducts(txs []core.Transaction, limit int) []ProductRank {
	groups := groupTransactions(txs, func(tx core.Transaction) string { return tx.ProductName })

	out := make([]ProductRank, 0, len(groups))
	for _, g := range groups {
		rank := ProductRank{ProductName: g.key}
		for _, tx := range g.txs {
			qty := math.Abs(tx.QuantityChange)
			rank.TotalQuantity += qty
			rank.TotalValue += qty * tx.Cost
			rank.Frequency++
			if rank.ProductID == "" {
				rank.ProductID = tx.ProductID
			}
		}
		out = append(out, rank)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].ProductName < out[j].ProductName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
