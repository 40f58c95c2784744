// Package ricequant fetches daily VWAP bars, the trading calendar, and
// index levels from the RiceQuant-compatible HTTP API that feeds the
// local data cache.
package ricequant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/httputil"
	"github.com/wonny/feval/pkg/logger"
	"github.com/wonny/feval/pkg/redis"
)

const cacheTTL = 12 * time.Hour

// Client talks to the market data vendor API
// ⭐ SSOT: 외부 시세 API 호출은 이 클라이언트로만 수행
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httputil.Client
	limiter    *rate.Limiter
	cache      *redis.Cache
	logger     *logger.Logger
}

// New creates a vendor client. The per-second rate limit comes from
// config; the vendor bans keys that exceed it.
func New(cfg config.RiceQuantConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache,
		logger:     log,
	}
}

type barResponse struct {
	Data []struct {
		OrderBookID string  `json:"order_book_id"`
		Date        string  `json:"date"`
		VWAP        float64 `json:"vwap"`
		PostVWAP    float64 `json:"post_vwap"`
	} `json:"data"`
}

type calendarResponse struct {
	Dates []string `json:"dates"`
}

type indexResponse struct {
	Data []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"data"`
}

type flagsResponse struct {
	Data []struct {
		OrderBookID   string `json:"order_book_id"`
		ST            bool   `json:"is_st"`
		Suspended     bool   `json:"is_suspended"`
		LimitUpAtOpen bool   `json:"limit_up_at_open"`
		NewlyListed   bool   `json:"is_newly_listed"`
	} `json:"data"`
}

// DailyVWAP fetches daily VWAP bars for one instrument
func (c *Client) DailyVWAP(ctx context.Context, code string, from, to time.Time) ([]contracts.Bar, error) {
	var resp barResponse
	key := fmt.Sprintf("rq:vwap:%s:%s:%s", code, from.Format("20060102"), to.Format("20060102"))
	if err := c.fetch(ctx, "/v1/daily_vwap", key, url.Values{
		"order_book_id": {code},
		"start_date":    {from.Format("2006-01-02")},
		"end_date":      {to.Format("2006-01-02")},
	}, &resp); err != nil {
		return nil, err
	}

	bars := make([]contracts.Bar, 0, len(resp.Data))
	for _, row := range resp.Data {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fmt.Errorf("vendor returned bad date %q for %s: %w", row.Date, code, err)
		}
		bars = append(bars, contracts.Bar{
			Code:     row.OrderBookID,
			Date:     contracts.Day(d),
			VWAP:     row.VWAP,
			PostVWAP: row.PostVWAP,
		})
	}
	return bars, nil
}

// TradingDates fetches the exchange trading calendar
func (c *Client) TradingDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var resp calendarResponse
	key := fmt.Sprintf("rq:caldr:%s:%s", from.Format("20060102"), to.Format("20060102"))
	if err := c.fetch(ctx, "/v1/trading_dates", key, url.Values{
		"start_date": {from.Format("2006-01-02")},
		"end_date":   {to.Format("2006-01-02")},
	}, &resp); err != nil {
		return nil, err
	}

	days := make([]time.Time, 0, len(resp.Dates))
	for _, s := range resp.Dates {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("vendor returned bad trading date %q: %w", s, err)
		}
		days = append(days, contracts.Day(d))
	}
	return days, nil
}

// IndexLevels fetches benchmark index closes keyed by day
func (c *Client) IndexLevels(ctx context.Context, indexCode string, from, to time.Time) (map[time.Time]float64, error) {
	var resp indexResponse
	key := fmt.Sprintf("rq:index:%s:%s:%s", indexCode, from.Format("20060102"), to.Format("20060102"))
	if err := c.fetch(ctx, "/v1/index_bars", key, url.Values{
		"order_book_id": {indexCode},
		"start_date":    {from.Format("2006-01-02")},
		"end_date":      {to.Format("2006-01-02")},
	}, &resp); err != nil {
		return nil, err
	}

	levels := make(map[time.Time]float64, len(resp.Data))
	for _, row := range resp.Data {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fmt.Errorf("vendor returned bad index date %q: %w", row.Date, err)
		}
		levels[contracts.Day(d)] = row.Close
	}
	return levels, nil
}

// InstrumentFlags fetches every instrument's exclusion flags for one
// trading day. 응답에 없는 종목은 플래그 미설정 (거래 가능)
func (c *Client) InstrumentFlags(ctx context.Context, date time.Time) (map[string]universe.Flags, error) {
	var resp flagsResponse
	key := fmt.Sprintf("rq:flags:%s", date.Format("20060102"))
	if err := c.fetch(ctx, "/v1/instrument_flags", key, url.Values{
		"date": {date.Format("2006-01-02")},
	}, &resp); err != nil {
		return nil, err
	}

	flags := make(map[string]universe.Flags, len(resp.Data))
	for _, row := range resp.Data {
		flags[row.OrderBookID] = universe.Flags{
			ST:            row.ST,
			Suspended:     row.Suspended,
			LimitUpAtOpen: row.LimitUpAtOpen,
			NewlyListed:   row.NewlyListed,
		}
	}
	return flags, nil
}

// fetch runs one GET with rate limiting and optional Redis caching
func (c *Client) fetch(ctx context.Context, path, cacheKey string, params url.Values, out interface{}) error {
	if c.cache != nil {
		found, err := c.cache.Get(ctx, cacheKey, out)
		if err != nil {
			c.logger.WithError(err).Warn("Vendor cache read failed")
		} else if found {
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build vendor request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vendor returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read vendor response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode vendor response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, out, cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Vendor cache write failed")
		}
	}
	return nil
}
