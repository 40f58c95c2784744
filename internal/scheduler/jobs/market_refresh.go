// Package jobs holds the concrete scheduled tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/external/ricequant"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/pkg/logger"
)

// refreshLookback is how far back each refresh re-fetches. Vendors
// restate VWAPs for a few days after corporate actions.
const refreshLookback = 10 * 24 * time.Hour

// MarketVendor is the slice of the vendor client the refresh uses
type MarketVendor interface {
	DailyVWAP(ctx context.Context, code string, from, to time.Time) ([]contracts.Bar, error)
	TradingDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
	IndexLevels(ctx context.Context, indexCode string, from, to time.Time) (map[time.Time]float64, error)
	InstrumentFlags(ctx context.Context, date time.Time) (map[string]universe.Flags, error)
}

// MarketStore persists refreshed bars, calendar entries, and benchmark
type MarketStore interface {
	UpsertBars(ctx context.Context, bars []contracts.Bar) error
	UpsertTradingDays(ctx context.Context, days []time.Time) error
	UpsertBenchmark(ctx context.Context, indexCode string, levels map[time.Time]float64) error
	CoveredCodes(ctx context.Context) ([]string, error)
}

// FlagStore persists refreshed instrument exclusion flags
type FlagStore interface {
	UpsertFlags(ctx context.Context, date time.Time, flags map[string]universe.Flags) error
}

var (
	_ MarketVendor = (*ricequant.Client)(nil)
	_ MarketStore  = (*marketdata.Repository)(nil)
	_ FlagStore    = (*universe.Repository)(nil)
)

// MarketRefreshJob pulls end-of-day bars, calendar entries, the
// benchmark index, and instrument flags from the vendor into Postgres.
type MarketRefreshJob struct {
	vendor    MarketVendor
	store     MarketStore
	flagStore FlagStore
	benchmark string
	logger    *logger.Logger
}

// NewMarketRefreshJob creates the nightly cache refresh job
func NewMarketRefreshJob(vendor MarketVendor, store MarketStore, flagStore FlagStore, benchmark string, log *logger.Logger) *MarketRefreshJob {
	return &MarketRefreshJob{
		vendor:    vendor,
		store:     store,
		flagStore: flagStore,
		benchmark: benchmark,
		logger:    log,
	}
}

// Name implements Job
func (j *MarketRefreshJob) Name() string { return "market_refresh" }

// Schedule implements Job: weekdays 17:30, after the vendor publishes
// end-of-day data
func (j *MarketRefreshJob) Schedule() string { return "0 30 17 * * 1-5" }

// Run implements Job
func (j *MarketRefreshJob) Run(ctx context.Context) error {
	to := contracts.Day(time.Now())
	from := contracts.Day(time.Now().Add(-refreshLookback))

	days, err := j.vendor.TradingDates(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch trading dates: %w", err)
	}
	if err := j.store.UpsertTradingDays(ctx, days); err != nil {
		return err
	}

	codes, err := j.store.CoveredCodes(ctx)
	if err != nil {
		return err
	}
	totalBars := 0
	for _, code := range codes {
		bars, err := j.vendor.DailyVWAP(ctx, code, from, to)
		if err != nil {
			return fmt.Errorf("fetch bars for %s: %w", code, err)
		}
		if err := j.store.UpsertBars(ctx, bars); err != nil {
			return err
		}
		totalBars += len(bars)
	}

	levels, err := j.vendor.IndexLevels(ctx, j.benchmark, from, to)
	if err != nil {
		return fmt.Errorf("fetch benchmark levels: %w", err)
	}
	if err := j.store.UpsertBenchmark(ctx, j.benchmark, levels); err != nil {
		return err
	}

	// 거래일별 제외 플래그 갱신 — 유니버스 마스크의 DB 원본
	totalFlags := 0
	for _, d := range days {
		flags, err := j.vendor.InstrumentFlags(ctx, d)
		if err != nil {
			return fmt.Errorf("fetch instrument flags for %s: %w", d.Format("2006-01-02"), err)
		}
		if err := j.flagStore.UpsertFlags(ctx, d, flags); err != nil {
			return err
		}
		totalFlags += len(flags)
	}

	j.logger.WithFields(map[string]interface{}{
		"codes":        len(codes),
		"bars":         totalBars,
		"trading_days": len(days),
		"bench_levels": len(levels),
		"flag_rows":    totalFlags,
	}).Info("Market cache refreshed")
	return nil
}
