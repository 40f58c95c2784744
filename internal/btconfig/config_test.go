package btconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
basic:
  signal_file: signals/top_picks.txt
  data_dir: data/cache
  save_dir: results

strategy:
  rank_n: 5
  rebalance_frequency: 25
  portfolio_count: 25
  benchmark: "000985.XSHG"
  initial_capital: 10000000
  cash_reserve: 0.05
  lot_size: 100
  weighting: equal

output:
  save_results: true
  output_dir: results

display:
  verbose: false
  show_progress: true
`

func TestParse_Sample(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "signals/top_picks.txt", cfg.Basic.SignalFile)
	assert.Equal(t, 5, cfg.Strategy.RankN)
	assert.Equal(t, 25, cfg.Strategy.RebalanceFrequency)
	assert.Equal(t, 25, cfg.Strategy.PortfolioCount)
	assert.Equal(t, "000985.XSHG", cfg.Strategy.Benchmark)
	assert.Equal(t, 0.05, cfg.Strategy.CashReserve)
	assert.Equal(t, int64(100), cfg.Strategy.LotSize)
	assert.True(t, cfg.Output.SaveResults)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("strategy:\n  rank_m: 5\n"))
	require.Error(t, err)
}

func TestParse_DefaultsPreserved(t *testing.T) {
	cfg, err := Parse([]byte("basic:\n  signal_file: s.txt\n"))
	require.NoError(t, err)

	// 명시하지 않은 키는 기본값 유지
	assert.Equal(t, 10, cfg.Strategy.RankN)
	assert.Equal(t, int64(100), cfg.Strategy.LotSize)
	assert.Equal(t, "equal", cfg.Strategy.Weighting)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero rank_n", func(c *Config) { c.Strategy.RankN = 0 }, "strategy.rank_n"},
		{"negative portfolio_count", func(c *Config) { c.Strategy.PortfolioCount = -1 }, "strategy.portfolio_count"},
		{"zero rebalance_frequency", func(c *Config) { c.Strategy.RebalanceFrequency = 0 }, "strategy.rebalance_frequency"},
		{"count exceeds frequency", func(c *Config) {
			c.Strategy.PortfolioCount = 10
			c.Strategy.RebalanceFrequency = 5
		}, "strategy.portfolio_count"},
		{"cash_reserve at 1", func(c *Config) { c.Strategy.CashReserve = 1.0 }, "strategy.cash_reserve"},
		{"negative cash_reserve", func(c *Config) { c.Strategy.CashReserve = -0.1 }, "strategy.cash_reserve"},
		{"zero lot_size", func(c *Config) { c.Strategy.LotSize = 0 }, "strategy.lot_size"},
		{"bad weighting", func(c *Config) { c.Strategy.Weighting = "cap" }, "strategy.weighting"},
		{"empty signal_file", func(c *Config) { c.Basic.SignalFile = "" }, "basic.signal_file"},
		{"zero capital", func(c *Config) { c.Strategy.InitialCapital = 0 }, "strategy.initial_capital"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Basic.SignalFile = "s.txt"
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := Default()
	cfg.Basic.SignalFile = "s.txt"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Strategy.RankN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/bt.yaml")
	require.Error(t, err)
}

func TestHash_StableAndSensitive(t *testing.T) {
	a, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	b, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 12)

	b.Strategy.RankN = 6
	hc, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestSleeveCapital(t *testing.T) {
	cfg := Default()
	cfg.Strategy.InitialCapital = 10_000_000
	cfg.Strategy.PortfolioCount = 25
	assert.InDelta(t, 400_000, cfg.SleeveCapital(), 1e-9)
}
