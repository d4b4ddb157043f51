// Package insight turns computed metrics into human-readable commentary.
// Every threshold is a named constant so rules can be tuned and tested
// independently.
package insight

import (
	"fmt"
	"sort"
	"time"

	"pantry/internal/stats"
)

const (
	// Monthly activity level.
	ActiveMonthTransactions = 50
	QuietMonthTransactions  = 10

	// Expiration rate commentary, in percent of added quantity.
	HighExpirationRatePct = 15.0
	LowExpirationRatePct  = 5.0

	// Consumption rate commentary, in percent of added quantity.
	EfficientConsumptionPct = 80.0
	LowConsumptionPct       = 50.0

	// Average cost commentary.
	HighAverageItemCost = 10.0

	// Recommendation thresholds.
	CostlyExpirationRatePct = 20.0
	MaxExpirationCallouts   = 2

	// Yearly thresholds.
	StrongGrowthPct       = 10.0
	SeasonalityCalloutPct = 50.0
	CategoryGrowthCallout = 25.0
	WasteSharePct         = 10.0
	CategorySpendSharePct = 30.0
)

// MonthlyMetrics carries the already-computed totals a monthly report holds.
type MonthlyMetrics struct {
	Transactions    int
	ItemsAdded      float64
	ItemsConsumed   float64
	ItemsExpired    float64
	TotalValue      float64
	AverageItemCost float64
}

// MonthlyInsights evaluates the activity, expiration, consumption and cost
// rules over one month of metrics.
func MonthlyInsights(m MonthlyMetrics) []string {
	var out []string

	switch {
	case m.Transactions > ActiveMonthTransactions:
		out = append(out, fmt.Sprintf("Active month with %d transactions recorded.", m.Transactions))
	case m.Transactions < QuietMonthTransactions:
		out = append(out, fmt.Sprintf("Quiet month with only %d transactions recorded.", m.Transactions))
	}

	if m.ItemsAdded > 0 {
		expirationRate := m.ItemsExpired / m.ItemsAdded * 100
		switch {
		case expirationRate > HighExpirationRatePct:
			out = append(out, fmt.Sprintf("High expiration rate (%.1f%%): items are going to waste before they are used.", expirationRate))
		case expirationRate < LowExpirationRatePct:
			out = append(out, fmt.Sprintf("Expiration rate stayed low (%.1f%%): items are used before they spoil.", expirationRate))
		}

		consumptionRate := m.ItemsConsumed / m.ItemsAdded * 100
		switch {
		case consumptionRate > EfficientConsumptionPct:
			out = append(out, fmt.Sprintf("Consumption kept pace with additions (%.0f%% of added quantity used).", consumptionRate))
		case consumptionRate < LowConsumptionPct:
			out = append(out, fmt.Sprintf("Less than half of newly added quantity was consumed (%.0f%%); turnover could improve.", consumptionRate))
		}
	}

	if m.AverageItemCost > HighAverageItemCost {
		out = append(out, fmt.Sprintf("Average item cost was %.2f, on the higher side.", m.AverageItemCost))
	} else if m.AverageItemCost > 0 {
		out = append(out, fmt.Sprintf("Average item cost stayed at %.2f.", m.AverageItemCost))
	}

	return out
}

// MonthlyRecommendations surfaces the most actionable categories: the worst
// expiration offenders, the biggest spend and anything trending down. When no
// rule fires it falls back to a generic message.
func MonthlyRecommendations(categories []stats.CategoryStatistics) []string {
	var out []string

	expiring := make([]stats.CategoryStatistics, 0, len(categories))
	for _, c := range categories {
		if c.ExpirationRate > CostlyExpirationRatePct {
			expiring = append(expiring, c)
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpirationRate > expiring[j].ExpirationRate
	})
	if len(expiring) > MaxExpirationCallouts {
		expiring = expiring[:MaxExpirationCallouts]
	}
	for _, c := range expiring {
		out = append(out, fmt.Sprintf("Reduce waste in %s: %.0f%% of added stock expires unused.", c.Category, c.ExpirationRate))
	}

	// Categories arrive sorted by value; the first with any value is the
	// biggest spend.
	for _, c := range categories {
		if c.TotalValue > 0 {
			out = append(out, fmt.Sprintf("Most spend concentrates in %s; review prices or batch sizes there.", c.Category))
			break
		}
	}

	for _, c := range categories {
		if c.Trend == stats.TrendDecreasing {
			out = append(out, fmt.Sprintf("Stock movement in %s is trending down; consider restocking.", c.Category))
		}
	}

	if len(out) == 0 {
		out = append(out, "Inventory practices look steady; maintain current habits.")
	}
	return out
}

// CategoryYear summarizes one category across a whole year.
type CategoryYear struct {
	Category    string
	Seasonality float64
	Growth      float64
	TotalValue  float64
}

// YearlyMetrics carries the already-computed yearly aggregates.
type YearlyMetrics struct {
	Year                 int
	PeakMonth            time.Month
	LowestMonth          time.Month
	AverageMonthlyGrowth float64
	ItemsAdded           float64
	ItemsExpired         float64
	Categories           []CategoryYear
}

// YearlyInsights evaluates the annual narrative rules.
func YearlyInsights(m YearlyMetrics) []string {
	var out []string

	out = append(out, fmt.Sprintf("Activity peaked in %s; %s was the quietest month.",
		m.PeakMonth, m.LowestMonth))

	switch {
	case m.AverageMonthlyGrowth > StrongGrowthPct:
		out = append(out, fmt.Sprintf("Inventory activity grew on average %.1f%% month over month.", m.AverageMonthlyGrowth))
	case m.AverageMonthlyGrowth < -StrongGrowthPct:
		out = append(out, fmt.Sprintf("Inventory activity declined on average %.1f%% month over month.", m.AverageMonthlyGrowth))
	default:
		out = append(out, "Inventory activity stayed roughly level across the year.")
	}

	if m.ItemsAdded > 0 {
		rate := m.ItemsExpired / m.ItemsAdded * 100
		if rate > HighExpirationRatePct {
			out = append(out, fmt.Sprintf("Annual expiration rate of %.1f%% is high; review buying quantities.", rate))
		} else if rate < LowExpirationRatePct {
			out = append(out, fmt.Sprintf("Annual expiration rate of %.1f%% is commendably low.", rate))
		}
	}

	for _, c := range m.Categories {
		if c.Seasonality > SeasonalityCalloutPct {
			out = append(out, fmt.Sprintf("%s is highly seasonal (seasonality %.0f%%).", c.Category, c.Seasonality))
		}
		switch {
		case c.Growth > CategoryGrowthCallout:
			out = append(out, fmt.Sprintf("%s grew %.0f%% from the first quarter to the last.", c.Category, c.Growth))
		case c.Growth < -CategoryGrowthCallout:
			out = append(out, fmt.Sprintf("%s shrank %.0f%% from the first quarter to the last.", c.Category, -c.Growth))
		}
	}

	return out
}
