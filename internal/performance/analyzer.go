// Package performance computes summary statistics over the simulated
// equity curve and its benchmark.
package performance

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

// TradingDaysPerYear is the annualization base
const TradingDaysPerYear = 252

// DefaultRiskFree is the annual risk-free rate used when none is given
const DefaultRiskFree = 0.03

// Metrics holds the full summary statistic set
type Metrics struct {
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	AnnualVol   float64 `json:"annual_volatility"`
	Sharpe      float64 `json:"sharpe"`
	Sortino     float64 `json:"sortino"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Calmar      float64 `json:"calmar"`
	WinRatio    float64 `json:"win_ratio"`

	// 벤치마크 상대 지표 (벤치마크 데이터 있을 때만 유효)
	BenchmarkReturn  float64 `json:"benchmark_return"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	TrackingError    float64 `json:"tracking_error"`
	InformationRatio float64 `json:"information_ratio"`
	HasBenchmark     bool    `json:"has_benchmark"`
}

// AnnualRow is one calendar-year return comparison
type AnnualRow struct {
	Year      int     `json:"year"`
	Strategy  float64 `json:"strategy"`
	Benchmark float64 `json:"benchmark"`
	Excess    float64 `json:"excess"`
}

// Report bundles the metrics and the per-year breakdown
type Report struct {
	Metrics Metrics     `json:"metrics"`
	Annual  []AnnualRow `json:"annual"`
}

// Analyzer computes performance reports from account history
type Analyzer struct {
	riskFree float64
	logger   *logger.Logger
}

// NewAnalyzer creates an analyzer with the given annual risk-free rate
func NewAnalyzer(riskFree float64, log *logger.Logger) *Analyzer {
	return &Analyzer{riskFree: riskFree, logger: log}
}

// Analyze computes the full report over the equity curve.
// At least two observations are required to form one return.
func (a *Analyzer) Analyze(rows []contracts.AccountRow) (*Report, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("need at least 2 account rows, got %d", len(rows))
	}

	equity := make([]float64, len(rows))
	for i, r := range rows {
		if r.TotalAsset <= 0 {
			return nil, fmt.Errorf("non-positive total asset %.4f on %s", r.TotalAsset, r.Date.Format("2006-01-02"))
		}
		equity[i] = r.TotalAsset
	}

	returns := dailyReturns(equity)
	years := float64(len(returns)) / TradingDaysPerYear

	m := Metrics{
		TotalReturn: equity[len(equity)-1]/equity[0] - 1,
		AnnualVol:   stddev(returns) * math.Sqrt(TradingDaysPerYear),
		MaxDrawdown: maxDrawdown(equity),
		WinRatio:    winRatio(returns),
	}
	m.CAGR = math.Pow(1+m.TotalReturn, 1/years) - 1

	dailyRF := a.riskFree / TradingDaysPerYear
	if m.AnnualVol > 0 {
		m.Sharpe = (mean(returns) - dailyRF) / stddev(returns) * math.Sqrt(TradingDaysPerYear)
	}
	if dd := downsideDev(returns, dailyRF); dd > 0 {
		m.Sortino = (mean(returns) - dailyRF) / dd * math.Sqrt(TradingDaysPerYear)
	}
	if m.MaxDrawdown > 0 {
		m.Calmar = m.CAGR / m.MaxDrawdown
	}

	a.addBenchmarkMetrics(rows, returns, &m)

	report := &Report{
		Metrics: m,
		Annual:  annualTable(rows),
	}

	a.logger.WithFields(map[string]interface{}{
		"total_return": m.TotalReturn,
		"cagr":         m.CAGR,
		"sharpe":       m.Sharpe,
		"mdd":          m.MaxDrawdown,
	}).Info("Performance report computed")

	return report, nil
}

// addBenchmarkMetrics fills the benchmark-relative fields when the
// benchmark column carries usable levels
func (a *Analyzer) addBenchmarkMetrics(rows []contracts.AccountRow, returns []float64, m *Metrics) {
	// 시작 구간의 0(미관측)은 건너뛰고 연속 양수 구간만 사용
	benchReturns := make([]float64, 0, len(returns))
	stratReturns := make([]float64, 0, len(returns))
	var firstBench, lastBench float64

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Benchmark, rows[i].Benchmark
		if prev <= 0 || cur <= 0 {
			continue
		}
		if firstBench == 0 {
			firstBench = prev
		}
		lastBench = cur
		benchReturns = append(benchReturns, cur/prev-1)
		stratReturns = append(stratReturns, returns[i-1])
	}

	if len(benchReturns) < 2 {
		return
	}
	m.HasBenchmark = true
	m.BenchmarkReturn = lastBench/firstBench - 1

	alpha, beta := olsAlphaBeta(stratReturns, benchReturns)
	m.Alpha = alpha * TradingDaysPerYear // 일간 절편을 연율화
	m.Beta = beta

	excess := make([]float64, len(stratReturns))
	for i := range stratReturns {
		excess[i] = stratReturns[i] - benchReturns[i]
	}
	m.TrackingError = stddev(excess) * math.Sqrt(TradingDaysPerYear)
	if m.TrackingError > 0 {
		m.InformationRatio = mean(excess) * TradingDaysPerYear / m.TrackingError
	}
}

// annualTable resamples the curve into calendar-year returns
func annualTable(rows []contracts.AccountRow) []AnnualRow {
	type bound struct {
		firstAsset, lastAsset float64
		firstBench, lastBench float64
	}
	byYear := make(map[int]*bound)
	for _, r := range rows {
		y := r.Date.Year()
		b, ok := byYear[y]
		if !ok {
			b = &bound{firstAsset: r.TotalAsset, firstBench: r.Benchmark}
			byYear[y] = b
		}
		if b.firstBench <= 0 && r.Benchmark > 0 {
			b.firstBench = r.Benchmark
		}
		b.lastAsset = r.TotalAsset
		if r.Benchmark > 0 {
			b.lastBench = r.Benchmark
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	table := make([]AnnualRow, 0, len(years))
	for _, y := range years {
		b := byYear[y]
		row := AnnualRow{Year: y}
		if b.firstAsset > 0 {
			row.Strategy = b.lastAsset/b.firstAsset - 1
		}
		if b.firstBench > 0 && b.lastBench > 0 {
			row.Benchmark = b.lastBench/b.firstBench - 1
		}
		row.Excess = row.Strategy - row.Benchmark
		table = append(table, row)
	}
	return table
}

func dailyReturns(equity []float64) []float64 {
	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		returns[i-1] = equity[i]/equity[i-1] - 1
	}
	return returns
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// downsideDev measures deviation of returns below the threshold
func downsideDev(returns []float64, threshold float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		if r < threshold {
			d := r - threshold
			sum += d * d
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

// maxDrawdown returns the deepest peak-to-trough loss as a positive
// fraction
func maxDrawdown(equity []float64) float64 {
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := 1 - v/peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

func winRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// olsAlphaBeta fits strat = alpha + beta*bench by least squares
func olsAlphaBeta(strat, bench []float64) (alpha, beta float64) {
	mb, ms := mean(bench), mean(strat)
	var cov, varB float64
	for i := range bench {
		db := bench[i] - mb
		cov += db * (strat[i] - ms)
		varB += db * db
	}
	if varB == 0 {
		return ms, 0
	}
	beta = cov / varB
	alpha = ms - beta*mb
	return alpha, beta
}
