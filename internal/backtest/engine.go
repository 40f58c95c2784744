// Package backtest runs the rolling multi-sleeve simulation: staggered
// sub-portfolios that each liquidate and rebuild to target weights at
// the day's VWAP on their own rebalance schedule.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

// EventKind classifies a recoverable data problem hit during the run
type EventKind string

const (
	// EventMissingWeights: 리밸런스 예정일인데 해당 날짜 비중 없음 → 보유 유지
	EventMissingWeights EventKind = "missing_weights"
	// EventBuySkipped: 매수 대상 종목의 당일 가격 없음 → 해당 비중은 현금 잔류
	EventBuySkipped EventKind = "buy_skipped"
	// EventSellFallback: 당일 가격 없어 마지막 관측가로 강제 청산
	EventSellFallback EventKind = "sell_fallback"
	// EventSellStuck: 관측된 가격이 전혀 없음 → 제로 가치 손실로 상각
	EventSellStuck EventKind = "sell_stuck"
)

// Event is one recoverable diagnostic recorded during the run
type Event struct {
	Date   time.Time `json:"date"`
	Sleeve int       `json:"sleeve"`
	Code   string    `json:"code"`
	Kind   EventKind `json:"kind"`
}

// Result is the full simulation output
type Result struct {
	Accounts []contracts.AccountRow
	Holdings []contracts.HoldingRow
	Turnover *contracts.TurnoverTable
	Events   []Event
	// Sleeves holds the final per-sleeve state at run end
	Sleeves []*Sleeve
}

// FinalAsset returns the last total account value
func (r *Result) FinalAsset() float64 {
	if len(r.Accounts) == 0 {
		return 0
	}
	return r.Accounts[len(r.Accounts)-1].TotalAsset
}

// Engine drives the day loop over every sleeve
// ⭐ SSOT: 시뮬레이션 상태 전이는 전부 이 엔진 안에서 일어남
type Engine struct {
	cfg       *btconfig.Config
	prices    contracts.PriceSource
	benchmark contracts.BenchmarkSource
	logger    *logger.Logger

	sleeves   []*Sleeve
	lastPrice map[string]float64 // 종목별 마지막 관측가 (MTM/강제청산 폴백)
	lastBench float64
	events    []Event
}

// NewEngine creates an engine for one validated config
func NewEngine(
	cfg *btconfig.Config,
	prices contracts.PriceSource,
	benchmark contracts.BenchmarkSource,
	log *logger.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		prices:    prices,
		benchmark: benchmark,
		logger:    log,
	}
}

// Run simulates the weight matrix over the given ordered trading days.
// days[0] is simulation day index 0, where sleeve 0 enters.
func (e *Engine) Run(ctx context.Context, days []time.Time, matrix *contracts.WeightMatrix) (*Result, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days to simulate")
	}
	if matrix == nil || matrix.Empty() {
		return nil, fmt.Errorf("weight matrix is empty")
	}

	count := e.cfg.Strategy.PortfolioCount
	freq := e.cfg.Strategy.RebalanceFrequency
	sleeveCapital := e.cfg.SleeveCapital()

	e.sleeves = make([]*Sleeve, count)
	for i := 0; i < count; i++ {
		e.sleeves[i] = NewSleeve(i, sleeveCapital)
	}
	e.lastPrice = make(map[string]float64)
	e.lastBench = 0
	e.events = nil

	result := &Result{Turnover: contracts.NewTurnoverTable(count)}

	e.logger.WithFields(map[string]interface{}{
		"days":            len(days),
		"sleeves":         count,
		"rebalance_freq":  freq,
		"sleeve_capital":  sleeveCapital,
		"cash_reserve":    e.cfg.Strategy.CashReserve,
		"lot_size":        e.cfg.Strategy.LotSize,
		"execution_dates": len(matrix.ByDate),
	}).Info("Backtest started")

	for dayIdx, day := range days {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		day = contracts.Day(day)

		for _, sleeve := range e.sleeves {
			if !IsRebalanceDay(sleeve.ID, dayIdx, freq) {
				continue
			}

			weights, ok := matrix.Get(day)
			if !ok {
				// 해당 날짜 신호 없음 — 기존 보유 유지
				e.record(day, sleeve.ID, "", EventMissingWeights)
				continue
			}

			turnover, err := e.rebalance(ctx, sleeve, day, weights, result)
			if err != nil {
				return nil, fmt.Errorf("rebalance sleeve %d on %s: %w", sleeve.ID, day.Format("2006-01-02"), err)
			}
			result.Turnover.Set(day, sleeve.ID, turnover)

			// 보유 구간 [당일, 다음 리밸런스일) 갱신; 창 끝이 시뮬레이션
			// 범위를 벗어나면 열린 구간
			expire := time.Time{}
			if next := dayIdx + freq; next < len(days) {
				expire = contracts.Day(days[next])
			}
			sleeve.Activate(day, expire)
		}

		row, err := e.markToMarket(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("mark-to-market on %s: %w", day.Format("2006-01-02"), err)
		}
		result.Accounts = append(result.Accounts, row)
	}

	result.Events = e.events
	result.Sleeves = e.sleeves

	e.logger.WithFields(map[string]interface{}{
		"final_asset": result.FinalAsset(),
		"events":      len(result.Events),
	}).Info("Backtest finished")

	return result, nil
}

// rebalance liquidates the sleeve and rebuilds it to the target weights
// at the day's VWAP
func (e *Engine) rebalance(
	ctx context.Context,
	sleeve *Sleeve,
	day time.Time,
	weights contracts.WeightVector,
	result *Result,
) (contracts.Turnover, error) {
	// 청산/재구성 전에 이전 보유 집합 확보 (회전율 기준)
	sleeve.SnapshotPrevious()

	if err := e.liquidate(ctx, sleeve, day); err != nil {
		return contracts.Turnover{}, err
	}

	// 청산 직후라 슬리브 자산은 전액 현금 — 유보분 제외하고 배분
	investable := sleeve.Cash * e.cfg.InvestableFraction()
	lot := e.cfg.Strategy.LotSize

	for _, code := range weights.Codes() {
		price, ok, err := e.prices.VWAP(ctx, code, day)
		if err != nil {
			return contracts.Turnover{}, err
		}
		if !ok {
			e.record(day, sleeve.ID, code, EventBuySkipped)
			continue
		}
		e.lastPrice[code] = price

		target := weights[code] * investable
		shares := floorToLot(target/price, lot)
		if shares <= 0 {
			continue
		}
		// floor 배분이라 현금 초과는 불가능하지만, 수치 오차를 대비해
		// 한 단위씩 줄여가며 맞춤
		for shares > 0 {
			if err := sleeve.Buy(code, shares, price); err == nil {
				break
			}
			shares -= lot
		}
	}

	turnover := CalcTurnover(sleeve.Previous(), sleeve.HoldingSet())

	for _, code := range sleeve.Codes() {
		result.Holdings = append(result.Holdings, contracts.HoldingRow{
			Date:   day,
			Sleeve: sleeve.ID,
			Code:   code,
			Shares: sleeve.Positions[code],
			Weight: weights[code],
		})
	}

	return turnover, nil
}

// liquidate sells every position at the day's VWAP, falling back to
// the last observed price when the day's price is missing. A position
// whose price was never observed is written off as a zero-value loss.
func (e *Engine) liquidate(ctx context.Context, sleeve *Sleeve, day time.Time) error {
	for _, code := range sleeve.Codes() {
		price, ok, err := e.prices.VWAP(ctx, code, day)
		if err != nil {
			return err
		}
		if ok {
			e.lastPrice[code] = price
			sleeve.SellAll(code, price)
			continue
		}

		if last, seen := e.lastPrice[code]; seen {
			sleeve.SellAll(code, last)
			e.record(day, sleeve.ID, code, EventSellFallback)
			continue
		}

		// 가격을 한 번도 본 적 없는 포지션 — 제로 가치로 상각
		sleeve.WriteOff(code)
		e.record(day, sleeve.ID, code, EventSellStuck)
	}
	return nil
}

// markToMarket values every sleeve at the day's prices and emits the
// aggregate account row
func (e *Engine) markToMarket(ctx context.Context, day time.Time) (contracts.AccountRow, error) {
	var queryErr error
	priceOf := func(code string) (float64, bool) {
		price, ok, err := e.prices.VWAP(ctx, code, day)
		if err != nil {
			queryErr = err
			return 0, false
		}
		if ok {
			e.lastPrice[code] = price
			return price, true
		}
		last, seen := e.lastPrice[code]
		return last, seen
	}

	totalAsset := 0.0
	totalCash := 0.0
	for _, sleeve := range e.sleeves {
		totalAsset += sleeve.Value(priceOf)
		totalCash += sleeve.Cash
	}
	if queryErr != nil {
		return contracts.AccountRow{}, queryErr
	}

	bench, ok, err := e.benchmark.BenchmarkValue(ctx, day)
	if err != nil {
		return contracts.AccountRow{}, err
	}
	if ok {
		e.lastBench = bench
	}

	return contracts.AccountRow{
		Date:       day,
		TotalAsset: totalAsset,
		Cash:       totalCash,
		Benchmark:  e.lastBench,
	}, nil
}

func (e *Engine) record(day time.Time, sleeve int, code string, kind EventKind) {
	e.events = append(e.events, Event{Date: day, Sleeve: sleeve, Code: code, Kind: kind})
	e.logger.WithFields(map[string]interface{}{
		"date":   day.Format("2006-01-02"),
		"sleeve": sleeve,
		"code":   code,
		"kind":   string(kind),
	}).Warn("Recoverable data gap")
}

// floorToLot rounds a fractional share quantity DOWN to a whole lot
// multiple. Never rounds up: overshooting the target would overdraw
// the cash reserve.
func floorToLot(shares float64, lot int64) int64 {
	if shares <= 0 || lot <= 0 {
		return 0
	}
	return int64(math.Floor(shares/float64(lot))) * lot
}
