package contracts

import (
	"context"
	"time"
)

// Day truncates a timestamp to a UTC calendar day.
// 모든 날짜 키는 이 형태로 정규화해서 비교/맵 키로 사용
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Bar is one daily execution-price observation for an instrument.
// VWAP is the unadjusted execution price; PostVWAP is volume-post-adjusted.
type Bar struct {
	Code     string    `json:"code"`
	Date     time.Time `json:"date"`
	VWAP     float64   `json:"vwap"`
	PostVWAP float64   `json:"post_vwap"`
}

// PriceSource supplies per-day execution prices (VWAP)
// ⭐ 계약: ok=false는 복구 가능한 데이터 갭, error는 저장소 장애
type PriceSource interface {
	VWAP(ctx context.Context, code string, date time.Time) (price float64, ok bool, err error)
}

// CalendarSource supplies the ordered trading calendar
type CalendarSource interface {
	TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

// BenchmarkSource supplies the benchmark index level per trading day
type BenchmarkSource interface {
	BenchmarkValue(ctx context.Context, date time.Time) (value float64, ok bool, err error)
}

// UniverseSource supplies the per-day tradable universe
// (ST/정지/개장 상한가/신규상장 제외 후)
type UniverseSource interface {
	Tradable(ctx context.Context, date time.Time) (map[string]bool, error)
}
