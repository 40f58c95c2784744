package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/signal"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/pkg/logger"
)

// buildFixture writes a complete data cache and signal file covering
// five trading days with two instruments
func buildFixture(t *testing.T) *btconfig.Config {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "cache")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	days := []string{"2023-01-03", "2023-01-04", "2023-01-05", "2023-01-06", "2023-01-09"}

	var vwap strings.Builder
	vwap.WriteString("order_book_id,datetime,vwap\n")
	for i, d := range days {
		fmt.Fprintf(&vwap, "600519.XSHG,%s,%0.1f\n", d, 100.0+float64(i))
		fmt.Fprintf(&vwap, "000001.XSHE,%s,%0.1f\n", d, 50.0+float64(i))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, marketdata.VWAPFile), []byte(vwap.String()), 0o644))

	cal := "trading_day\n" + strings.Join(days, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, marketdata.TradingDaysFile), []byte(cal), 0o644))

	var bench strings.Builder
	bench.WriteString("datetime,close\n")
	for i, d := range days {
		fmt.Fprintf(&bench, "%s,%0.1f\n", d, 5000.0+10*float64(i))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, marketdata.BenchmarkFile), []byte(bench.String()), 0o644))

	maskHeader := "datetime,order_book_id\n"
	for _, name := range []string{universe.STFile, universe.SuspendedFile, universe.LimitUpFile, universe.NewListingFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(maskHeader), 0o644))
	}

	var sig strings.Builder
	for _, d := range days[:4] { // 마지막 날 신호는 실행일이 없음
		compact := strings.ReplaceAll(d, "-", "")
		fmt.Fprintf(&sig, "%s_600519\n%s_000001\n", compact, compact)
	}
	signalPath := filepath.Join(root, "picks.txt")
	require.NoError(t, os.WriteFile(signalPath, []byte(sig.String()), 0o644))

	cfg := btconfig.Default()
	cfg.Basic.SignalFile = signalPath
	cfg.Basic.DataDir = dataDir
	cfg.Strategy.RankN = 2
	cfg.Strategy.PortfolioCount = 2
	cfg.Strategy.RebalanceFrequency = 2
	cfg.Strategy.InitialCapital = 1_000_000
	cfg.Strategy.CashReserve = 0.05
	cfg.Strategy.LotSize = 100
	cfg.Output.OutputDir = filepath.Join(root, "results")
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := buildFixture(t)
	r := New(logger.NewNop())

	outcome, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)

	// 실행일: 1/4 ~ 1/9 (신호 익일), 4거래일
	assert.Len(t, outcome.Result.Accounts, 4)
	assert.NotEmpty(t, outcome.Result.Holdings)
	assert.Len(t, outcome.ConfigHash, 12)

	// 결과 파일 5종 저장
	require.Len(t, outcome.SavedFiles, 5)
	for _, p := range outcome.SavedFiles {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
		assert.Contains(t, filepath.Base(p), "picks_")
		assert.Contains(t, filepath.Base(p), outcome.ConfigHash)
	}

	// 자산은 항상 양수, 현금 음수 없음
	for _, row := range outcome.Result.Accounts {
		assert.Positive(t, row.TotalAsset)
		assert.GreaterOrEqual(t, row.Cash, 0.0)
	}

	assert.NotNil(t, outcome.Report)
	assert.True(t, outcome.Report.Metrics.HasBenchmark)
}

func TestRun_SaveDisabled(t *testing.T) {
	cfg := buildFixture(t)
	cfg.Output.SaveResults = false

	outcome, err := New(logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, outcome.SavedFiles)
}

func TestRun_MissingPriceDataFatal(t *testing.T) {
	cfg := buildFixture(t)

	// 신호에 가격 이력이 전혀 없는 종목 추가 → 커버리지 실패
	f, err := os.OpenFile(cfg.Basic.SignalFile, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("20230103_300750\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = New(logger.NewNop()).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coverage")
}

func TestRun_MissingSignalFile(t *testing.T) {
	cfg := buildFixture(t)
	cfg.Basic.SignalFile = filepath.Join(t.TempDir(), "absent.txt")

	_, err := New(logger.NewNop()).Run(context.Background(), cfg)
	require.Error(t, err)
}

func TestRun_ContextCancelled(t *testing.T) {
	cfg := buildFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(logger.NewNop()).Run(ctx, cfg)
	require.Error(t, err)
}

func TestOpenSources_DefaultsToCSVCache(t *testing.T) {
	cfg := buildFixture(t)
	r := New(logger.NewNop())

	signals, err := signal.NewReader(logger.NewNop()).Read(cfg.Basic.SignalFile)
	require.NoError(t, err)

	src, err := r.openSources(context.Background(), cfg, signals)
	require.NoError(t, err)

	// DB 핸들 없는 러너는 CSV 캐시 백엔드를 사용
	assert.IsType(t, (*marketdata.CSVStore)(nil), src.prices)
	assert.IsType(t, (*marketdata.CSVStore)(nil), src.benchmark)
	assert.IsType(t, (*universe.CSVSource)(nil), src.flags)
	assert.Equal(t, 5, src.calendar.Len())
}

func TestCodeInventory(t *testing.T) {
	inv := codeInventory{"600519.XSHG": {}}
	assert.True(t, inv.HasCode("600519.XSHG"))
	assert.False(t, inv.HasCode("000001.XSHE"))
}

func TestOutcomeTimestamps(t *testing.T) {
	cfg := buildFixture(t)
	before := time.Now()

	outcome, err := New(logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, outcome.StartedAt.Before(before.Add(-time.Second)))
	assert.False(t, outcome.FinishedAt.Before(outcome.StartedAt))
}
