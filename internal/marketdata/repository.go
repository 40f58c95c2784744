package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/database"
	"github.com/wonny/feval/pkg/logger"
)

// Repository serves market data from Postgres. Used when the cache
// refresh job keeps data.daily_vwap / data.trading_days /
// data.benchmark_prices current instead of the CSV cache.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

var (
	_ contracts.PriceSource     = (*Repository)(nil)
	_ contracts.CalendarSource  = (*Repository)(nil)
	_ contracts.BenchmarkSource = benchmarkReader{}
)

// NewRepository creates a Postgres-backed market data source
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// VWAP returns the execution price for (code, date).
// No row is a recoverable gap, not an error.
func (r *Repository) VWAP(ctx context.Context, code string, date time.Time) (float64, bool, error) {
	const query = `
		SELECT vwap
		FROM data.daily_vwap
		WHERE code = $1 AND trade_date = $2 AND vwap > 0
	`
	var vwap float64
	err := r.db.Pool.QueryRow(ctx, query, code, contracts.Day(date)).Scan(&vwap)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query vwap for %s: %w", code, err)
	}
	return vwap, true, nil
}

// TradingDays returns the trading calendar in [from, to]
func (r *Repository) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	const query = `
		SELECT trade_date
		FROM data.trading_days
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date
	`
	rows, err := r.db.Pool.Query(ctx, query, contracts.Day(from), contracts.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query trading days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan trading day: %w", err)
		}
		days = append(days, contracts.Day(d))
	}
	return days, rows.Err()
}

// Benchmark returns a BenchmarkSource bound to one index code.
// 테이블에는 여러 지수가 공존하므로 조회 시 지수 코드를 고정
func (r *Repository) Benchmark(indexCode string) contracts.BenchmarkSource {
	return benchmarkReader{repo: r, indexCode: indexCode}
}

type benchmarkReader struct {
	repo      *Repository
	indexCode string
}

// BenchmarkValue returns the bound index's level on date
func (b benchmarkReader) BenchmarkValue(ctx context.Context, date time.Time) (float64, bool, error) {
	const query = `
		SELECT close
		FROM data.benchmark_prices
		WHERE index_code = $1 AND trade_date = $2
	`
	var v float64
	err := b.repo.db.Pool.QueryRow(ctx, query, b.indexCode, contracts.Day(date)).Scan(&v)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query benchmark %s: %w", b.indexCode, err)
	}
	return v, true, nil
}

// UpsertBars writes daily VWAP bars fetched from the vendor
// ⭐ SSOT: data.daily_vwap 쓰기는 여기서만 수행
func (r *Repository) UpsertBars(ctx context.Context, bars []contracts.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	const query = `
		INSERT INTO data.daily_vwap (code, trade_date, vwap, post_vwap, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (code, trade_date)
		DO UPDATE SET vwap = EXCLUDED.vwap,
		              post_vwap = EXCLUDED.post_vwap,
		              updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, b.Code, contracts.Day(b.Date), b.VWAP, b.PostVWAP)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vwap bar: %w", err)
		}
	}

	r.logger.WithField("bars", len(bars)).Debug("Upserted daily VWAP bars")
	return nil
}

// UpsertTradingDays writes trading calendar entries
func (r *Repository) UpsertTradingDays(ctx context.Context, days []time.Time) error {
	if len(days) == 0 {
		return nil
	}

	const query = `
		INSERT INTO data.trading_days (trade_date)
		VALUES ($1)
		ON CONFLICT (trade_date) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(query, contracts.Day(d))
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range days {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert trading day: %w", err)
		}
	}
	return nil
}

// UpsertBenchmark writes benchmark index levels
func (r *Repository) UpsertBenchmark(ctx context.Context, indexCode string, levels map[time.Time]float64) error {
	if len(levels) == 0 {
		return nil
	}

	const query = `
		INSERT INTO data.benchmark_prices (index_code, trade_date, close, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (index_code, trade_date)
		DO UPDATE SET close = EXCLUDED.close, updated_at = NOW()
	`

	batch := &pgx.Batch{}
	n := 0
	for d, v := range levels {
		batch.Queue(query, indexCode, contracts.Day(d), v)
		n++
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert benchmark level: %w", err)
		}
	}
	return nil
}

// CoveredCodes returns every instrument code present in data.daily_vwap
func (r *Repository) CoveredCodes(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT code FROM data.daily_vwap ORDER BY code`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query covered codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
