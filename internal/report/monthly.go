package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"pantry/internal/core"
	"pantry/internal/insight"
	applog "pantry/internal/log"
	"pantry/internal/stats"
)

// Monthly generates the report for one calendar month. An empty groupID is
// resolved against the caller's group context; with no scope at all the
// report is computed over an empty window and not cached.
func (b *Builder) Monthly(ctx context.Context, year int, month time.Month, groupID string) (MonthlyReport, error) {
	gid, ok := b.ledger.ResolveGroup(ctx, groupID)
	if !ok {
		return b.buildMonthly(year, month, "", nil, nil), nil
	}

	key := monthlyKey(gid, year, month)
	if b.monthly != nil {
		if cached, hit := b.monthly.Get(key); hit {
			return cached, nil
		}
	}

	txs, err := b.fetchMonth(ctx, gid, year, month)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("monthly report %04d-%02d: %w", year, month, err)
	}

	prevYear, prevMonth := previousMonth(year, month)
	prevTxs, err := b.fetchMonth(ctx, gid, prevYear, prevMonth)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("monthly report %04d-%02d: previous month: %w", year, month, err)
	}

	r := b.buildMonthly(year, month, gid, txs, prevTxs)

	if b.monthly != nil {
		b.monthly.Set(key, r)
	}
	b.logger.InfoContext(ctx, "Monthly report generated",
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		applog.FieldGroupID, gid,
		applog.FieldCount, r.TotalTransactions)
	return r, nil
}

func (b *Builder) fetchMonth(ctx context.Context, groupID string, year int, month time.Month) ([]core.Transaction, error) {
	start, end := monthWindow(year, month)
	return b.ledger.GetTransactions(ctx, core.Query{
		Start:   &start,
		End:     &end,
		GroupID: groupID,
	})
}

func (b *Builder) buildMonthly(year int, month time.Month, groupID string, txs, prevTxs []core.Transaction) MonthlyReport {
	totals := computeTotals(txs)
	prev := computeTotals(prevTxs)
	categories := stats.AnalyzeCategories(txs)

	return MonthlyReport{
		Year:               year,
		Month:              month,
		GroupID:            groupID,
		TotalTransactions:  totals.transactions,
		TotalItemsAdded:    totals.added,
		TotalItemsConsumed: totals.consumed,
		TotalItemsExpired:  totals.expired,
		TotalValue:         totals.value,
		AverageItemCost:    totals.averageCost,
		Categories:         categories,
		Locations:          stats.AnalyzeLocations(txs, b.opts.LocationCapacity),
		TopProducts:        stats.TopProducts(txs, b.opts.TopProducts),
		Trends: TrendDeltas{
			AdditionChangePct:    pctChange(totals.added, prev.added),
			ConsumptionChangePct: pctChange(totals.consumed, prev.consumed),
			CostChangePct:        pctChange(totals.averageCost, prev.averageCost),
			ExpirationChangePct:  pctChange(totals.expired, prev.expired),
		},
		Insights: insight.MonthlyInsights(insight.MonthlyMetrics{
			Transactions:    totals.transactions,
			ItemsAdded:      totals.added,
			ItemsConsumed:   totals.consumed,
			ItemsExpired:    totals.expired,
			TotalValue:      totals.value,
			AverageItemCost: totals.averageCost,
		}),
		Recommendations: insight.MonthlyRecommendations(categories),
		GeneratedAt:     time.Now(),
	}
}

type monthTotals struct {
	transactions int
	added        float64
	consumed     float64
	expired      float64
	value        float64
	averageCost  float64
}

func computeTotals(txs []core.Transaction) monthTotals {
	var t monthTotals
	t.transactions = len(txs)
	for _, tx := range txs {
		qty := math.Abs(tx.QuantityChange)
		switch tx.Type {
		case core.TypeAdd:
			t.added += qty
			t.value += qty * tx.Cost
		case core.TypeConsume:
			t.consumed += qty
		case core.TypeExpire:
			t.expired += qty
		}
	}
	if t.added > 0 {
		t.averageCost = t.value / t.added
	}
	return t
}
