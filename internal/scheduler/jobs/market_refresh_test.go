package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/pkg/logger"
)

type fakeVendor struct {
	days  []time.Time
	bars  map[string][]contracts.Bar
	flags map[string]universe.Flags
}

func (f *fakeVendor) TradingDates(_ context.Context, _, _ time.Time) ([]time.Time, error) {
	return f.days, nil
}

func (f *fakeVendor) DailyVWAP(_ context.Context, code string, _, _ time.Time) ([]contracts.Bar, error) {
	return f.bars[code], nil
}

func (f *fakeVendor) IndexLevels(_ context.Context, _ string, _, _ time.Time) (map[time.Time]float64, error) {
	levels := make(map[time.Time]float64, len(f.days))
	for i, d := range f.days {
		levels[d] = 5000 + float64(i)
	}
	return levels, nil
}

func (f *fakeVendor) InstrumentFlags(_ context.Context, _ time.Time) (map[string]universe.Flags, error) {
	return f.flags, nil
}

type fakeMarketStore struct {
	codes       []string
	bars        []contracts.Bar
	tradingDays []time.Time
	benchCode   string
	benchLevels map[time.Time]float64
}

func (s *fakeMarketStore) UpsertBars(_ context.Context, bars []contracts.Bar) error {
	s.bars = append(s.bars, bars...)
	return nil
}

func (s *fakeMarketStore) UpsertTradingDays(_ context.Context, days []time.Time) error {
	s.tradingDays = days
	return nil
}

func (s *fakeMarketStore) UpsertBenchmark(_ context.Context, indexCode string, levels map[time.Time]float64) error {
	s.benchCode = indexCode
	s.benchLevels = levels
	return nil
}

func (s *fakeMarketStore) CoveredCodes(_ context.Context) ([]string, error) {
	return s.codes, nil
}

type fakeFlagStore struct {
	upserts map[time.Time]map[string]universe.Flags
}

func (s *fakeFlagStore) UpsertFlags(_ context.Context, date time.Time, flags map[string]universe.Flags) error {
	if s.upserts == nil {
		s.upserts = make(map[time.Time]map[string]universe.Flags)
	}
	s.upserts[date] = flags
	return nil
}

func TestMarketRefreshJob_Run(t *testing.T) {
	d1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)

	vendor := &fakeVendor{
		days: []time.Time{d1, d2},
		bars: map[string][]contracts.Bar{
			"600519.XSHG": {{Code: "600519.XSHG", Date: d1, VWAP: 1700}},
			"000001.XSHE": {{Code: "000001.XSHE", Date: d1, VWAP: 12}, {Code: "000001.XSHE", Date: d2, VWAP: 13}},
		},
		flags: map[string]universe.Flags{"300750.XSHE": {Suspended: true}},
	}
	store := &fakeMarketStore{codes: []string{"600519.XSHG", "000001.XSHE"}}
	flagStore := &fakeFlagStore{}

	job := NewMarketRefreshJob(vendor, store, flagStore, "000985.XSHG", logger.NewNop())
	assert.Equal(t, "market_refresh", job.Name())

	require.NoError(t, job.Run(context.Background()))

	// 달력, 종목별 바, 벤치마크 모두 저장
	assert.Equal(t, []time.Time{d1, d2}, store.tradingDays)
	assert.Len(t, store.bars, 3)
	assert.Equal(t, "000985.XSHG", store.benchCode)
	assert.Len(t, store.benchLevels, 2)

	// 거래일마다 제외 플래그 갱신
	require.Len(t, flagStore.upserts, 2)
	assert.True(t, flagStore.upserts[d1]["300750.XSHE"].Suspended)
	assert.True(t, flagStore.upserts[d2]["300750.XSHE"].Suspended)
}
