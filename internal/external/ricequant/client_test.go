package ricequant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/httputil"
	"github.com/wonny/feval/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewNop()
	httpClient := httputil.New(log).DisableRetry()
	return New(config.RiceQuantConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		RateLimit: 100,
	}, httpClient, nil, log)
}

func TestDailyVWAP(t *testing.T) {
	var gotAuth, gotPath, gotCode string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotCode = r.URL.Query().Get("order_book_id")
		w.Write([]byte(`{"data":[
			{"order_book_id":"600519.XSHG","date":"2023-01-03","vwap":1700.5,"post_vwap":1800.1},
			{"order_book_id":"600519.XSHG","date":"2023-01-04","vwap":1712.0,"post_vwap":1812.4}
		]}`))
	})

	bars, err := c.DailyVWAP(context.Background(), "600519.XSHG", day(2023, 1, 1), day(2023, 1, 31))
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/v1/daily_vwap", gotPath)
	assert.Equal(t, "600519.XSHG", gotCode)

	require.Len(t, bars, 2)
	assert.Equal(t, "600519.XSHG", bars[0].Code)
	assert.Equal(t, day(2023, 1, 3), bars[0].Date)
	assert.Equal(t, 1700.5, bars[0].VWAP)
	assert.Equal(t, 1800.1, bars[0].PostVWAP)
}

func TestTradingDates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates":["2023-01-03","2023-01-04","2023-01-05"]}`))
	})

	days, err := c.TradingDates(context.Background(), day(2023, 1, 1), day(2023, 1, 31))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, day(2023, 1, 3), days[0])
}

func TestIndexLevels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "000985.XSHG", r.URL.Query().Get("order_book_id"))
		w.Write([]byte(`{"data":[{"date":"2023-01-03","close":4900.1}]}`))
	})

	levels, err := c.IndexLevels(context.Background(), "000985.XSHG", day(2023, 1, 1), day(2023, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 4900.1, levels[day(2023, 1, 3)])
}

func TestInstrumentFlags(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/instrument_flags", r.URL.Path)
		assert.Equal(t, "2023-01-03", r.URL.Query().Get("date"))
		w.Write([]byte(`{"data":[
			{"order_book_id":"600519.XSHG","is_st":false,"is_suspended":true,"limit_up_at_open":false,"is_newly_listed":false},
			{"order_book_id":"300750.XSHE","is_st":true,"is_suspended":false,"limit_up_at_open":false,"is_newly_listed":true}
		]}`))
	})

	flags, err := c.InstrumentFlags(context.Background(), day(2023, 1, 3))
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.True(t, flags["600519.XSHG"].Suspended)
	assert.False(t, flags["600519.XSHG"].ST)
	assert.True(t, flags["300750.XSHE"].ST)
	assert.True(t, flags["300750.XSHE"].NewlyListed)
}

func TestFetch_NonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := c.DailyVWAP(context.Background(), "600519.XSHG", day(2023, 1, 1), day(2023, 1, 31))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetch_BadDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"order_book_id":"600519.XSHG","date":"not-a-date","vwap":1}]}`))
	})

	_, err := c.DailyVWAP(context.Background(), "600519.XSHG", day(2023, 1, 1), day(2023, 1, 31))
	require.Error(t, err)
}
