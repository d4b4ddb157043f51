package stats

import (
	"math"
	"testing"
	"time"

	"pantry/internal/core"
)

func tx(typ core.TransactionType, product, category, location string, qty, cost float64, at time.Time) core.Transaction {
	change := qty
	if typ.Outbound() {
		change = -qty
	}
	return core.Transaction{
		ID:             product + string(typ) + at.Format(time.RFC3339Nano),
		ProductName:    product,
		Category:       category,
		Location:       location,
		Type:           typ,
		QuantityChange: change,
		Cost:           cost,
		Timestamp:      at.UnixMilli(),
	}
}

func approx(t *testing.T, got, want, tolerance float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
}

func TestAnalyzeCategoriesBasic(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day5 := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	txs := []core.Transaction{
		tx(core.TypeAdd, "Milk", "dairy", "fridge", 10, 2.0, day1),
		tx(core.TypeConsume, "Milk", "dairy", "fridge", 10, 2.0, day5),
	}

	out := AnalyzeCategoriesAt(txs, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 category, got %d", len(out))
	}
	dairy := out[0]
	if dairy.Category != "dairy" {
		t.Fatalf("expected dairy, got %q", dairy.Category)
	}
	approx(t, dairy.TotalItems, 20, 1e-9, "total items")
	approx(t, dairy.TotalValue, 40, 1e-9, "total value")
	approx(t, dairy.ExpirationRate, 0, 1e-9, "expiration rate")
	approx(t, dairy.CostPerItem, 2, 1e-9, "cost per item")
	if dairy.MostAddedProduct != "Milk" || dairy.MostConsumedProduct != "Milk" {
		t.Fatalf("expected Milk for most added/consumed, got %q/%q",
			dairy.MostAddedProduct, dairy.MostConsumedProduct)
	}
}

func TestAnalyzeCategoriesExpirationRate(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.TypeAdd, "Yogurt", "dairy", "fridge", 5, 1.0, now.AddDate(0, 0, -19)),
		tx(core.TypeExpire, "Yogurt", "dairy", "fridge", 5, 1.0, now.AddDate(0, 0, -10)),
	}
	out := AnalyzeCategoriesAt(txs, now)
	approx(t, out[0].ExpirationRate, 100, 1e-9, "expiration rate")
}

func TestAnalyzeCategoriesNoAdditionsZeroRate(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx(core.TypeConsume, "Rice", "grains", "pantry", 3, 0, now.Add(-time.Hour)),
		tx(core.TypeExpire, "Rice", "grains", "pantry", 1, 0, now.Add(-time.Minute)),
	}
	out := AnalyzeCategoriesAt(txs, now)
	approx(t, out[0].ExpirationRate, 0, 1e-9, "expiration rate with no additions")
	approx(t, out[0].CostPerItem, 0, 1e-9, "cost per item with no value")
}

func TestAnalyzeCategoriesSortedByValue(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx(core.TypeAdd, "Bread", "bakery", "pantry", 2, 1.0, now.Add(-2*time.Hour)),
		tx(core.TypeAdd, "Cheese", "dairy", "fridge", 4, 5.0, now.Add(-time.Hour)),
	}
	out := AnalyzeCategoriesAt(txs, now)
	if len(out) != 2 || out[0].Category != "dairy" || out[1].Category != "bakery" {
		t.Fatalf("expected dairy before bakery, got %+v", out)
	}
}

func TestAnalyzeCategoriesMostAddedTieFirstEncountered(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx(core.TypeAdd, "Apples", "fruit", "pantry", 5, 0, now.Add(-3*time.Hour)),
		tx(core.TypeAdd, "Pears", "fruit", "pantry", 5, 0, now.Add(-2*time.Hour)),
	}
	out := AnalyzeCategoriesAt(txs, now)
	if out[0].MostAddedProduct != "Apples" {
		t.Fatalf("expected first-encountered Apples, got %q", out[0].MostAddedProduct)
	}
}

func TestClassifyTrend(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(quantities ...float64) []core.Transaction {
		txs := make([]core.Transaction, len(quantities))
		for i, q := range quantities {
			txs[i] = tx(core.TypeAdd, "P", "c", "l", q, 0, base.Add(time.Duration(i)*time.Hour))
		}
		return txs
	}

	cases := []struct {
		name string
		txs  []core.Transaction
		want Trend
	}{
		{"single transaction", mk(10), TrendStable},
		{"flat halves", mk(5, 5, 5, 5), TrendStable},
		{"growing", mk(1, 1, 5, 5), TrendIncreasing},
		{"shrinking", mk(5, 5, 1, 1), TrendDecreasing},
		{"within ten percent", mk(10, 10, 10, 11), TrendStable},
	}
	for _, tc := range cases {
		if got := classifyTrend(tc.txs); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestRollingGrowthWindows(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		// prior window: 31-60 days back
		tx(core.TypeAdd, "P", "c", "l", 10, 0, now.AddDate(0, 0, -45)),
		// last window: 0-30 days back
		tx(core.TypeAdd, "P", "c", "l", 15, 0, now.AddDate(0, 0, -10)),
		// outside both windows, must not count
		tx(core.TypeAdd, "P", "c", "l", 100, 0, now.AddDate(0, 0, -90)),
	}
	approx(t, rollingGrowth(txs, now), 50, 1e-9, "rolling growth")

	noPrior := []core.Transaction{
		tx(core.TypeAdd, "P", "c", "l", 15, 0, now.AddDate(0, 0, -10)),
	}
	approx(t, rollingGrowth(noPrior, now), 0, 1e-9, "growth without prior activity")
}

// The sum of per-category total items must partition the absolute quantity
// moved across all transactions in the window.
func TestCategoryTotalsPartitionTransactions(t *testing.T) {
	now := time.Now()
	txs := []core.Transaction{
		tx(core.TypeAdd, "Milk", "dairy", "fridge", 10, 2, now.Add(-4*time.Hour)),
		tx(core.TypeConsume, "Milk", "dairy", "fridge", 4, 2, now.Add(-3*time.Hour)),
		tx(core.TypeAdd, "Bread", "bakery", "pantry", 2, 1, now.Add(-2*time.Hour)),
		tx(core.TypeExpire, "Bread", "bakery", "pantry", 1, 1, now.Add(-time.Hour)),
		tx(core.TypeUpdate, "Rice", "grains", "pantry", 3, 0, now.Add(-30*time.Minute)),
	}

	var want float64
	for _, tr := range txs {
		want += math.Abs(tr.QuantityChange)
	}
	var got float64
	for _, cs := range AnalyzeCategoriesAt(txs, now) {
		got += cs.TotalItems
	}
	approx(t, got, want, 1e-9, "partition property")
}
