package stats

import "time"

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

const (
	// trendDeltaPct is the relative change between chronological halves above
	// which activity counts as increasing (or below the negation, decreasing).
	trendDeltaPct = 0.10

	// growthWindow is the rolling window used for monthly growth. It is
	// anchored to the reference time, not to calendar month boundaries, so it
	// can disagree with a report's own month window.
	growthWindow = 30 * 24 * time.Hour

	// DefaultLocationCapacity is the assumed item capacity per location when
	// the caller does not configure one.
	DefaultLocationCapacity = 100.0
)

type (
	Trend  string
	Bucket string

	// CategoryStatistics summarizes one category over a query window. Derived,
	// never persisted.
	CategoryStatistics struct {
		Category            string  `json:"category"`
		TotalItems          float64 `json:"totalItems"`
		TotalValue          float64 `json:"totalValue"`
		AverageQuantity     float64 `json:"averageQuantity"`
		MostAddedProduct    string  `json:"mostAddedProduct"`
		MostConsumedProduct string  `json:"mostConsumedProduct"`
		ExpirationRate      float64 `json:"expirationRate"`
		CostPerItem         float64 `json:"costPerItem"`
		Trend               Trend   `json:"trend"`
		MonthlyGrowth       float64 `json:"monthlyGrowth"`
	}

	// LocationStatistics summarizes one storage location over a query window.
	LocationStatistics struct {
		Location            string  `json:"location"`
		TotalItems          float64 `json:"totalItems"`
		TotalValue          float64 `json:"totalValue"`
		MostAddedProduct    string  `json:"mostAddedProduct"`
		MostConsumedProduct string  `json:"mostConsumedProduct"`
		ExpirationRate      float64 `json:"expirationRate"`
		CostPerItem         float64 `json:"costPerItem"`
		UtilizationRate     float64 `json:"utilizationRate"`
		AverageStorageDays  float64 `json:"averageStorageDays"`
		CapacityUtilization float64 `json:"capacityUtilization"`
		Trend               Trend   `json:"trend"`
		MonthlyGrowth       float64 `json:"monthlyGrowth"`
	}

	// ProductRank is one entry of a top-products ranking.
	ProductRank struct {
		ProductID     string  `json:"productId,omitempty"`
		ProductName   string  `json:"productName"`
		TotalQuantity float64 `json:"totalQuantity"`
		TotalValue    float64 `json:"totalValue"`
		Frequency     int     `json:"frequency"`
	}

	// TrendDataPoint accumulates one time bucket of activity.
	TrendDataPoint struct {
		Bucket           string             `json:"bucket"`
		Start            time.Time          `json:"start"`
		TotalItems       float64            `json:"totalItems"`
		TotalValue       float64            `json:"totalValue"`
		AddedQuantity    float64            `json:"addedQuantity"`
		ConsumedQuantity float64            `json:"consumedQuantity"`
		ExpiredQuantity  float64            `json:"expiredQuantity"`
		AverageCost      float64            `json:"averageCost"`
		ByCategory       map[string]float64 `json:"byCategory"`
		ByLocation       map[string]float64 `json:"byLocation"`
	}
)
