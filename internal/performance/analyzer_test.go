package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

func curve(start time.Time, assets []float64, bench []float64) []contracts.AccountRow {
	rows := make([]contracts.AccountRow, len(assets))
	for i, a := range assets {
		rows[i] = contracts.AccountRow{
			Date:       start.AddDate(0, 0, i),
			TotalAsset: a,
		}
		if bench != nil {
			rows[i].Benchmark = bench[i]
		}
	}
	return rows
}

func TestAnalyze_Basics(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := curve(start, []float64{100, 110, 99, 108.9}, nil)

	a := NewAnalyzer(DefaultRiskFree, logger.NewNop())
	report, err := a.Analyze(rows)
	require.NoError(t, err)

	m := report.Metrics
	assert.InDelta(t, 0.089, m.TotalReturn, 1e-9)
	// 110 → 99 최대 낙폭 10%
	assert.InDelta(t, 0.10, m.MaxDrawdown, 1e-9)
	// 상승 2일 / 3일
	assert.InDelta(t, 2.0/3.0, m.WinRatio, 1e-12)
	assert.False(t, m.HasBenchmark)
	assert.Positive(t, m.AnnualVol)
}

func TestAnalyze_FlatCurve(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := curve(start, []float64{100, 100, 100}, nil)

	a := NewAnalyzer(0, logger.NewNop())
	report, err := a.Analyze(rows)
	require.NoError(t, err)

	m := report.Metrics
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.AnnualVol)
	assert.Zero(t, m.Sharpe) // 변동성 0이면 샤프 정의 안 함
	assert.Zero(t, m.Calmar)
}

func TestAnalyze_BetaOneForIdenticalSeries(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	assets := []float64{100, 102, 101, 104, 103, 107}
	rows := curve(start, assets, assets) // 벤치마크 = 전략

	a := NewAnalyzer(0, logger.NewNop())
	report, err := a.Analyze(rows)
	require.NoError(t, err)

	m := report.Metrics
	require.True(t, m.HasBenchmark)
	assert.InDelta(t, 1.0, m.Beta, 1e-9)
	assert.InDelta(t, 0.0, m.Alpha, 1e-9)
	assert.InDelta(t, 0.0, m.TrackingError, 1e-9)
	assert.InDelta(t, m.TotalReturn, m.BenchmarkReturn, 1e-9)
}

func TestAnalyze_BenchmarkLeadingZerosSkipped(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := curve(start,
		[]float64{100, 101, 102, 103, 104},
		[]float64{0, 0, 5000, 5050, 5100}) // 처음 이틀 벤치마크 미관측

	a := NewAnalyzer(0, logger.NewNop())
	report, err := a.Analyze(rows)
	require.NoError(t, err)

	m := report.Metrics
	require.True(t, m.HasBenchmark)
	assert.InDelta(t, 5100.0/5000.0-1, m.BenchmarkReturn, 1e-12)
}

func TestAnalyze_AnnualTable(t *testing.T) {
	rows := []contracts.AccountRow{
		{Date: time.Date(2022, 12, 29, 0, 0, 0, 0, time.UTC), TotalAsset: 100, Benchmark: 1000},
		{Date: time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), TotalAsset: 110, Benchmark: 1010},
		{Date: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), TotalAsset: 110, Benchmark: 1010},
		{Date: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), TotalAsset: 121, Benchmark: 1111},
	}

	a := NewAnalyzer(0, logger.NewNop())
	report, err := a.Analyze(rows)
	require.NoError(t, err)

	require.Len(t, report.Annual, 2)
	assert.Equal(t, 2022, report.Annual[0].Year)
	assert.InDelta(t, 0.10, report.Annual[0].Strategy, 1e-12)
	assert.Equal(t, 2023, report.Annual[1].Year)
	assert.InDelta(t, 0.10, report.Annual[1].Strategy, 1e-12)
	assert.InDelta(t, 0.10, report.Annual[1].Benchmark, 1e-12)
	assert.InDelta(t, 0.0, report.Annual[1].Excess, 1e-12)
}

func TestAnalyze_Errors(t *testing.T) {
	a := NewAnalyzer(0, logger.NewNop())

	_, err := a.Analyze(nil)
	require.Error(t, err)

	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = a.Analyze(curve(start, []float64{100}, nil))
	require.Error(t, err)

	_, err = a.Analyze(curve(start, []float64{100, -5}, nil))
	require.Error(t, err)
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 0.5, maxDrawdown([]float64{100, 200, 100, 150}), 1e-12)
	assert.Zero(t, maxDrawdown([]float64{100, 110, 120}))
}

func TestOLSAlphaBeta(t *testing.T) {
	// strat = 0.001 + 1.5 * bench (정확한 선형 관계)
	bench := []float64{0.01, -0.02, 0.005, 0.015, -0.01}
	strat := make([]float64, len(bench))
	for i, b := range bench {
		strat[i] = 0.001 + 1.5*b
	}

	alpha, beta := olsAlphaBeta(strat, bench)
	assert.InDelta(t, 1.5, beta, 1e-12)
	assert.InDelta(t, 0.001, alpha, 1e-12)
}
