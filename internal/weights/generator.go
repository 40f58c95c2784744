package weights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/pkg/logger"
)

// Generator builds the execution-dated weight matrix from signals
// ⭐ SSOT: 선택 → 목표 비중 변환은 여기서만 수행
type Generator struct {
	universe contracts.UniverseSource
	calendar *marketdata.Calendar
	scheme   Scheme
	rankN    int
	logger   *logger.Logger
}

// NewGenerator creates a weight generator
func NewGenerator(
	universe contracts.UniverseSource,
	calendar *marketdata.Calendar,
	scheme Scheme,
	rankN int,
	log *logger.Logger,
) *Generator {
	return &Generator{
		universe: universe,
		calendar: calendar,
		scheme:   scheme,
		rankN:    rankN,
		logger:   log,
	}
}

// Generate converts a signal set into target weights keyed by the first
// trading day STRICTLY AFTER each signal date. The one-day shift means
// a signal computed on day t is only actionable on day t+1.
func (g *Generator) Generate(ctx context.Context, signals *contracts.SignalSet) (*contracts.WeightMatrix, error) {
	if signals.Empty() {
		return nil, fmt.Errorf("signal set is empty")
	}

	matrix := contracts.NewWeightMatrix()
	ranksByDate := signals.RanksByDate()

	for _, signalDate := range signals.Dates() {
		execDate, ok := g.calendar.NextAfter(signalDate)
		if !ok {
			// 마지막 신호가 달력 끝을 넘어감 — 실행일 없음
			g.logger.WithField("signal_date", signalDate.Format("2006-01-02")).
				Warn("Signal date has no following trading day, dropped")
			continue
		}

		selected, err := g.selectTop(ctx, signalDate, ranksByDate[signalDate])
		if err != nil {
			return nil, err
		}
		if len(selected) == 0 {
			g.logger.WithField("signal_date", signalDate.Format("2006-01-02")).
				Warn("No tradable candidates, rebalance skipped")
			continue
		}

		if len(selected) < g.rankN {
			matrix.Shortfalls = append(matrix.Shortfalls, contracts.Shortfall{
				Date:      signalDate,
				Wanted:    g.rankN,
				Available: len(selected),
			})
			g.logger.WithFields(map[string]interface{}{
				"signal_date": signalDate.Format("2006-01-02"),
				"wanted":      g.rankN,
				"available":   len(selected),
			}).Warn("Tradable candidates below rank_n")
		}

		matrix.ByDate[execDate] = g.scheme.Weights(selected)
	}

	if matrix.Empty() {
		return nil, fmt.Errorf("no executable weight vectors produced")
	}

	g.logger.WithFields(map[string]interface{}{
		"execution_dates": len(matrix.ByDate),
		"shortfalls":      len(matrix.Shortfalls),
		"scheme":          g.scheme.Name(),
	}).Info("Weight matrix generated")

	return matrix, nil
}

// selectTop filters the day's candidates through the tradability mask
// and keeps the rankN best (smallest rank). Ties break by code so the
// result is deterministic.
func (g *Generator) selectTop(ctx context.Context, date time.Time, ranks map[string]int) ([]Selection, error) {
	mask, err := g.universe.Tradable(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load universe for %s: %w", date.Format("2006-01-02"), err)
	}

	candidates := make([]Selection, 0, len(ranks))
	for code, rank := range ranks {
		// 플래그 기록이 있는 종목만 제외 대상, 기록 없음 = 거래 가능
		if tradable, flagged := mask[code]; flagged && !tradable {
			continue
		}
		candidates = append(candidates, Selection{Code: code, Rank: rank})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Rank != candidates[j].Rank {
			return candidates[i].Rank < candidates[j].Rank
		}
		return candidates[i].Code < candidates[j].Code
	})

	if len(candidates) > g.rankN {
		candidates = candidates[:g.rankN]
	}
	return candidates, nil
}
