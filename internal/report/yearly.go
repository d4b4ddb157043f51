package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pantry/internal/insight"
	applog "pantry/internal/log"
)

var seasonSpans = []struct {
	name   string
	months []time.Month
}{
	{"Jan-Mar", []time.Month{time.January, time.February, time.March}},
	{"Apr-Jun", []time.Month{time.April, time.May, time.June}},
	{"Jul-Sep", []time.Month{time.July, time.August, time.September}},
	{"Oct-Dec", []time.Month{time.October, time.November, time.December}},
}

// Yearly generates the annual report by fanning out one Monthly build per
// calendar month. The twelve builds run concurrently; the first error cancels
// the rest and fails the whole report.
func (b *Builder) Yearly(ctx context.Context, year int, groupID string) (YearlyReport, error) {
	gid, scoped := b.ledger.ResolveGroup(ctx, groupID)
	if !scoped {
		gid = ""
	}

	key := yearlyKey(gid, year)
	if scoped && b.yearly != nil {
		if cached, hit := b.yearly.Get(key); hit {
			return cached, nil
		}
	}

	months := make([]MonthlyReport, 12)
	g, gctx := errgroup.WithContext(ctx)
	for m := time.January; m <= time.December; m++ {
		m := m
		g.Go(func() error {
			r, err := b.Monthly(gctx, year, m, gid)
			if err != nil {
				return err
			}
			months[m-1] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return YearlyReport{}, fmt.Errorf("yearly report %04d: %w", year, err)
	}

	r := composeYearly(year, gid, months)

	if scoped && b.yearly != nil {
		b.yearly.Set(key, r)
	}
	b.logger.InfoContext(ctx, "Yearly report generated",
		applog.FieldYear, year,
		applog.FieldGroupID, gid,
		applog.FieldCount, r.TotalTransactions)
	return r, nil
}

func composeYearly(year int, groupID string, months []MonthlyReport) YearlyReport {
	r := YearlyReport{
		Year:        year,
		GroupID:     groupID,
		Months:      months,
		PeakMonth:   time.January,
		LowestMonth: time.January,
		GeneratedAt: time.Now(),
	}

	var added, expired, consumed float64
	for _, m := range months {
		r.TotalTransactions += m.TotalTransactions
		r.TotalValue += m.TotalValue
		added += m.TotalItemsAdded
		expired += m.TotalItemsExpired
		consumed += m.TotalItemsConsumed
		if m.TotalValue > months[r.PeakMonth-1].TotalValue {
			r.PeakMonth = m.Month
		}
		if m.TotalValue < months[r.LowestMonth-1].TotalValue {
			r.LowestMonth = m.Month
		}
	}
	r.AverageMonthlyGrowth = averageMonthlyGrowth(months)
	r.Seasons = summarizeSeasons(months)
	r.Categories = analyzeCategoryYears(months)
	r.Costs = analyzeCosts(r.TotalValue, added, consumed, expired, r.Categories)

	insightCategories := make([]insight.CategoryYear, len(r.Categories))
	for i, c := range r.Categories {
		insightCategories[i] = insight.CategoryYear{
			Category:    c.Category,
			Seasonality: c.Seasonality,
			Growth:      c.Growth,
			TotalValue:  c.TotalValue,
		}
	}
	r.Insights = insight.YearlyInsights(insight.YearlyMetrics{
		Year:                 year,
		PeakMonth:            r.PeakMonth,
		LowestMonth:          r.LowestMonth,
		AverageMonthlyGrowth: r.AverageMonthlyGrowth,
		ItemsAdded:           added,
		ItemsExpired:         expired,
		Categories:           insightCategories,
	})
	return r
}

// averageMonthlyGrowth is the mean month-over-month percentage change of
// transaction counts across the year. Identical months yield 0.
func averageMonthlyGrowth(months []MonthlyReport) float64 {
	var sum float64
	for i := 1; i < len(months); i++ {
		sum += pctChange(float64(months[i].TotalTransactions), float64(months[i-1].TotalTransactions))
	}
	return sum / float64(len(months)-1)
}

func summarizeSeasons(months []MonthlyReport) []SeasonSummary {
	seasons := make([]SeasonSummary, 0, len(seasonSpans))
	for _, span := range seasonSpans {
		var txCount int
		categoryValue := map[string]float64{}
		var order []string
		for _, m := range span.months {
			report := months[m-1]
			txCount += report.TotalTransactions
			for _, c := range report.Categories {
				if _, seen := categoryValue[c.Category]; !seen {
					order = append(order, c.Category)
				}
				categoryValue[c.Category] += c.TotalValue
			}
		}
		sort.SliceStable(order, func(i, j int) bool {
			return categoryValue[order[i]] > categoryValue[order[j]]
		})
		top := order
		if len(top) > 3 {
			top = top[:3]
		}
		seasons = append(seasons, SeasonSummary{
			Name:                span.name,
			Months:              span.months,
			AverageTransactions: float64(txCount) / float64(len(span.months)),
			TopCategories:       top,
		})
	}
	return seasons
}

// analyzeCategoryYears computes per-category seasonality (coefficient of
// variation of monthly values, in percent) and growth (last quarter average
// vs. first quarter average).
func analyzeCategoryYears(months []MonthlyReport) []CategoryAnalysis {
	monthly := map[string][12]float64{}
	var order []string
	for i, m := range months {
		for _, c := range m.Categories {
			values, seen := monthly[c.Category]
			if !seen {
				order = append(order, c.Category)
			}
			values[i] += c.TotalValue
			monthly[c.Category] = values
		}
	}

	out := make([]CategoryAnalysis, 0, len(order))
	for _, category := range order {
		values := monthly[category]
		var total float64
		for _, v := range values {
			total += v
		}
		mean := total / 12

		var variance float64
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		variance /= 12

		var seasonality float64
		if mean > 0 {
			seasonality = math.Sqrt(variance) / mean * 100
		}

		firstQuarter := (values[0] + values[1] + values[2]) / 3
		lastQuarter := (values[9] + values[10] + values[11]) / 3

		out = append(out, CategoryAnalysis{
			Category:    category,
			TotalValue:  total,
			Seasonality: seasonality,
			Growth:      pctChange(lastQuarter, firstQuarter),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalValue > out[j].TotalValue })
	return out
}

func analyzeCosts(totalSpent, added, consumed, expired float64, categories []CategoryAnalysis) CostAnalysis {
	c := CostAnalysis{
		TotalSpent:          totalSpent,
		AverageMonthlySpend: totalSpent / 12,
	}
	if added > 0 {
		c.CostEfficiency = consumed / added * 100
		c.EstimatedWasteValue = expired / added * totalSpent
	}

	if added > 0 && expired/added*100 > insight.WasteSharePct {
		c.SavingsOpportunities = append(c.SavingsOpportunities,
			fmt.Sprintf("Reduce expiration waste to recover an estimated %.2f in value.", c.EstimatedWasteValue))
	}
	for _, cat := range categories {
		if totalSpent > 0 && cat.TotalValue/totalSpent*100 > insight.CategorySpendSharePct {
			c.SavingsOpportunities = append(c.SavingsOpportunities,
				fmt.Sprintf("%s accounts for %.0f%% of spend; review purchase volumes.", cat.Category, cat.TotalValue/totalSpent*100))
		}
	}
	return c
}
