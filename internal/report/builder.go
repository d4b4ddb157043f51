// Package report composes aggregation results and generated commentary into
// monthly and yearly report objects.
package report

import (
	"context"
	"fmt"
	"time"

	"pantry/internal/cache"
	"pantry/internal/core"
	"pantry/internal/ledger"
	applog "pantry/internal/log"
	"pantry/internal/stats"
)

const defaultTopProducts = 10

// Options tunes report derivations.
type Options struct {
	// LocationCapacity feeds the capacity utilization heuristic; <= 0 uses
	// the stats default.
	LocationCapacity float64
	// TopProducts bounds the product ranking per report; <= 0 means 10.
	TopProducts int
}

type Builder struct {
	ledger  *ledger.Service
	monthly cache.Cache[MonthlyReport]
	yearly  cache.Cache[YearlyReport]
	logger  *applog.Logger
	opts    Options
}

// NewBuilder constructs the report builder. The yearly cache is expected to
// carry a longer TTL than the monthly one; either may be nil to disable
// memoization.
func NewBuilder(led *ledger.Service, monthly cache.Cache[MonthlyReport], yearly cache.Cache[YearlyReport], logger *applog.Logger, opts Options) *Builder {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentReport})
	}
	if opts.TopProducts <= 0 {
		opts.TopProducts = defaultTopProducts
	}
	if monthly != nil {
		led.RegisterInvalidator(monthly)
	}
	if yearly != nil {
		led.RegisterInvalidator(yearly)
	}
	return &Builder{
		ledger:  led,
		monthly: monthly,
		yearly:  yearly,
		logger:  logger.WithComponent(applog.ComponentReport),
		opts:    opts,
	}
}

// Trend buckets the group's transactions in [start, end] by the given period
// size. Exposed as part of the public contract alongside the reports.
func (b *Builder) Trend(ctx context.Context, start, end time.Time, bucket stats.Bucket, groupID string) ([]stats.TrendDataPoint, error) {
	txs, err := b.ledger.GetTransactions(ctx, core.Query{
		Start:   &start,
		End:     &end,
		GroupID: groupID,
	})
	if err != nil {
		return nil, fmt.Errorf("trend data: %w", err)
	}
	return stats.TrendData(txs, bucket), nil
}

// Categories runs the category analysis over an optional date range for a
// group.
func (b *Builder) Categories(ctx context.Context, groupID string, start, end *time.Time) ([]stats.CategoryStatistics, error) {
	txs, err := b.ledger.GetTransactions(ctx, core.Query{
		Start:   start,
		End:     end,
		GroupID: groupID,
	})
	if err != nil {
		return nil, fmt.Errorf("category analysis: %w", err)
	}
	return stats.AnalyzeCategories(txs), nil
}

func monthlyKey(groupID string, year int, month time.Month) string {
	return fmt.Sprintf("%sreport|monthly|%04d-%02d", core.GroupKeyPrefix(groupID), year, month)
}

func yearlyKey(groupID string, year int) string {
	return fmt.Sprintf("%sreport|yearly|%04d", core.GroupKeyPrefix(groupID), year)
}

// monthWindow returns the inclusive millisecond bounds of a calendar month.
func monthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// pctChange is percentage change with the zero-prior convention of 0.
func pctChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
