// Package runner wires the full pipeline: signals → coverage check →
// weights → rolling simulation → performance report → saved artifacts.
// The CLI, the API server, and scheduled jobs all run backtests
// through this one entry point.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/feval/internal/backtest"
	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/coverage"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/performance"
	"github.com/wonny/feval/internal/report"
	"github.com/wonny/feval/internal/signal"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/internal/weights"
	"github.com/wonny/feval/pkg/database"
	"github.com/wonny/feval/pkg/logger"
)

// Outcome bundles everything one run produced
type Outcome struct {
	ConfigHash string
	Result     *backtest.Result
	Report     *performance.Report
	SavedFiles []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner executes backtests for validated configs
type Runner struct {
	logger *logger.Logger
	db     *database.DB
}

// New creates a runner backed by the CSV data cache
func New(log *logger.Logger) *Runner {
	return &Runner{logger: log}
}

// NewWithDB creates a runner that reads prices, the trading calendar,
// the benchmark, and instrument flags from Postgres — the tables the
// nightly refresh job keeps current — instead of the CSV cache.
func NewWithDB(db *database.DB, log *logger.Logger) *Runner {
	return &Runner{logger: log, db: db}
}

// sources bundles the per-run market data backends
type sources struct {
	prices    contracts.PriceSource
	benchmark contracts.BenchmarkSource
	calendar  *marketdata.Calendar
	flags     universe.FlagSource
	inventory coverage.PriceInventory
}

// calendarTailDays pads the calendar query past the last signal date
// so the next-day execution shift always has a trading day to land on
const calendarTailDays = 30

// openSources picks the data backend: CSV cache by default, Postgres
// when the runner was built with a database handle
func (r *Runner) openSources(ctx context.Context, cfg *btconfig.Config, signals *contracts.SignalSet) (*sources, error) {
	if r.db == nil {
		store, err := marketdata.OpenCSVStore(cfg.Basic.DataDir, r.logger)
		if err != nil {
			return nil, err
		}
		flagSource, err := universe.OpenCSVSource(cfg.Basic.DataDir, r.logger)
		if err != nil {
			return nil, err
		}
		return &sources{
			prices:    store,
			benchmark: store,
			calendar:  store.Calendar(),
			flags:     flagSource,
			inventory: store,
		}, nil
	}

	repo := marketdata.NewRepository(r.db, r.logger)
	first, last := signals.DateRange()
	days, err := repo.TradingDays(ctx, first, last.AddDate(0, 0, calendarTailDays))
	if err != nil {
		return nil, err
	}
	cal, err := marketdata.NewCalendar(days)
	if err != nil {
		return nil, fmt.Errorf("trading calendar from database: %w", err)
	}
	codes, err := repo.CoveredCodes(ctx)
	if err != nil {
		return nil, err
	}
	inv := make(codeInventory, len(codes))
	for _, c := range codes {
		inv[c] = struct{}{}
	}
	r.logger.WithFields(map[string]interface{}{
		"trading_days":  cal.Len(),
		"covered_codes": len(codes),
	}).Info("Using Postgres market data")
	return &sources{
		prices:    repo,
		benchmark: repo.Benchmark(cfg.Strategy.Benchmark),
		calendar:  cal,
		flags:     universe.NewRepository(r.db, r.logger),
		inventory: inv,
	}, nil
}

// codeInventory answers coverage lookups from a preloaded code set
type codeInventory map[string]struct{}

func (s codeInventory) HasCode(code string) bool {
	_, ok := s[code]
	return ok
}

// Run executes the whole pipeline for one config
func (r *Runner) Run(ctx context.Context, cfg *btconfig.Config) (*Outcome, error) {
	started := time.Now()

	hash, err := cfg.Hash()
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(map[string]interface{}{
		"signal_file": cfg.Basic.SignalFile,
		"config_hash": hash,
	}).Info("Run started")

	// 1. 신호 파일
	signals, err := signal.NewReader(r.logger).Read(cfg.Basic.SignalFile)
	if err != nil {
		return nil, err
	}

	// 2. 시장 데이터 + 유니버스 마스크 (CSV 캐시 또는 Postgres)
	src, err := r.openSources(ctx, cfg, signals)
	if err != nil {
		return nil, err
	}

	// 3. 커버리지 검사 — 실패하면 시뮬레이션 진입 전 중단
	if err := coverage.NewChecker(r.logger).Check(signals, src.inventory, src.calendar); err != nil {
		return nil, err
	}

	// 4. 목표 비중
	scheme, err := weights.NewScheme(cfg.Strategy.Weighting)
	if err != nil {
		return nil, err
	}
	gen := weights.NewGenerator(universe.NewBuilder(src.flags), src.calendar, scheme, cfg.Strategy.RankN, r.logger)
	matrix, err := gen.Generate(ctx, signals)
	if err != nil {
		return nil, err
	}

	// 5. 시뮬레이션 구간: 첫 실행일 ~ 마지막 실행일
	execDates := matrix.Dates()
	days := src.calendar.Slice(execDates[0], execDates[len(execDates)-1])
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days between first and last execution date")
	}

	engine := backtest.NewEngine(cfg, src.prices, src.benchmark, r.logger)
	result, err := engine.Run(ctx, days, matrix)
	if err != nil {
		return nil, err
	}

	// 6. 성과 분석
	analyzer := performance.NewAnalyzer(performance.DefaultRiskFree, r.logger)
	perfReport, err := analyzer.Analyze(result.Accounts)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		ConfigHash: hash,
		Result:     result,
		Report:     perfReport,
		StartedAt:  started,
	}

	// 7. 결과 저장
	if cfg.Output.SaveResults {
		writer := report.NewWriter(cfg.Output.OutputDir, r.logger)
		base := report.BaseName(cfg.Basic.SignalFile, hash, started)
		paths, err := writer.Save(base, result, perfReport)
		if err != nil {
			return nil, err
		}
		outcome.SavedFiles = paths
	}

	outcome.FinishedAt = time.Now()
	r.logger.WithFields(map[string]interface{}{
		"config_hash": hash,
		"final_asset": result.FinalAsset(),
		"elapsed":     outcome.FinishedAt.Sub(started).String(),
	}).Info("Run finished")

	return outcome, nil
}
