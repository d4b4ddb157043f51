package report

import (
	"time"

	"pantry/internal/stats"
)

type (
	// MonthlyReport is the derived view of one month of ledger activity for a
	// group. It is computed on demand and cached, never persisted.
	MonthlyReport struct {
		Year               int                        `json:"year"`
		Month              time.Month                 `json:"month"`
		GroupID            string                     `json:"groupId,omitempty"`
		TotalTransactions  int                        `json:"totalTransactions"`
		TotalItemsAdded    float64                    `json:"totalItemsAdded"`
		TotalItemsConsumed float64                    `json:"totalItemsConsumed"`
		TotalItemsExpired  float64                    `json:"totalItemsExpired"`
		TotalValue         float64                    `json:"totalValue"`
		AverageItemCost    float64                    `json:"averageItemCost"`
		Categories         []stats.CategoryStatistics `json:"categories"`
		Locations          []stats.LocationStatistics `json:"locations"`
		TopProducts        []stats.ProductRank        `json:"topProducts"`
		Trends             TrendDeltas                `json:"trends"`
		Insights           []string                   `json:"insights"`
		Recommendations    []string                   `json:"recommendations"`
		GeneratedAt        time.Time                  `json:"generatedAt"`
	}

	// TrendDeltas carries month-over-month percentage change per metric. A
	// zero prior value yields 0, not infinity.
	TrendDeltas struct {
		AdditionChangePct    float64 `json:"additionChangePct"`
		ConsumptionChangePct float64 `json:"consumptionChangePct"`
		CostChangePct        float64 `json:"costChangePct"`
		ExpirationChangePct  float64 `json:"expirationChangePct"`
	}

	// YearlyReport composes twelve monthly reports with annual derivations.
	YearlyReport struct {
		Year                 int                `json:"year"`
		GroupID              string             `json:"groupId,omitempty"`
		Months               []MonthlyReport    `json:"months"`
		TotalTransactions    int                `json:"totalTransactions"`
		TotalValue           float64            `json:"totalValue"`
		PeakMonth            time.Month         `json:"peakMonth"`
		LowestMonth          time.Month         `json:"lowestMonth"`
		AverageMonthlyGrowth float64            `json:"averageMonthlyGrowth"`
		Seasons              []SeasonSummary    `json:"seasons"`
		Categories           []CategoryAnalysis `json:"categories"`
		Costs                CostAnalysis       `json:"costs"`
		Insights             []string           `json:"insights"`
		GeneratedAt          time.Time          `json:"generatedAt"`
	}

	// SeasonSummary aggregates one fixed three-month span.
	SeasonSummary struct {
		Name                string       `json:"name"`
		Months              []time.Month `json:"months"`
		AverageTransactions float64      `json:"averageTransactions"`
		TopCategories       []string     `json:"topCategories"`
	}

	// CategoryAnalysis is the yearly seasonality and growth view of one
	// category. Seasonality is the coefficient of variation of its monthly
	// values, as a percentage.
	CategoryAnalysis struct {
		Category    string  `json:"category"`
		TotalValue  float64 `json:"totalValue"`
		Seasonality float64 `json:"seasonality"`
		Growth      float64 `json:"growth"`
	}

	// CostAnalysis summarizes annual spend, efficiency and waste.
	CostAnalysis struct {
		TotalSpent           float64  `json:"totalSpent"`
		AverageMonthlySpend  float64  `json:"averageMonthlySpend"`
		CostEfficiency       float64  `json:"costEfficiency"`
		EstimatedWasteValue  float64  `json:"estimatedWasteValue"`
		SavingsOpportunities []string `json:"savingsOpportunities"`
	}
)
