package btconfig

import (
	"fmt"
	"strings"
)

// ValidationError describes one invalid config field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every failed check so the user can fix
// the whole file in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every invariant the simulation depends on.
// 하나라도 실패하면 시뮬레이션 시작 전에 중단 (fatal)
func (c *Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Basic.SignalFile) == "" {
		errs = append(errs, ValidationError{"basic.signal_file", "must not be empty"})
	}
	if strings.TrimSpace(c.Basic.DataDir) == "" {
		errs = append(errs, ValidationError{"basic.data_dir", "must not be empty"})
	}

	if c.Strategy.RankN <= 0 {
		errs = append(errs, ValidationError{"strategy.rank_n", "must be positive"})
	}
	if c.Strategy.RebalanceFrequency <= 0 {
		errs = append(errs, ValidationError{"strategy.rebalance_frequency", "must be positive"})
	}
	if c.Strategy.PortfolioCount <= 0 {
		errs = append(errs, ValidationError{"strategy.portfolio_count", "must be positive"})
	}
	// count > freq면 같은 날 두 슬리브가 리밸런스 — 시차 진입 설계 위반
	if c.Strategy.PortfolioCount > 0 && c.Strategy.RebalanceFrequency > 0 &&
		c.Strategy.PortfolioCount > c.Strategy.RebalanceFrequency {
		errs = append(errs, ValidationError{"strategy.portfolio_count",
			"must not exceed rebalance_frequency (at most one sleeve rebalances per day)"})
	}
	if c.Strategy.InitialCapital <= 0 {
		errs = append(errs, ValidationError{"strategy.initial_capital", "must be positive"})
	}
	if c.Strategy.CashReserve < 0 || c.Strategy.CashReserve >= 1 {
		errs = append(errs, ValidationError{"strategy.cash_reserve", "must be in [0, 1)"})
	}
	if c.Strategy.LotSize <= 0 {
		errs = append(errs, ValidationError{"strategy.lot_size", "must be positive"})
	}
	switch c.Strategy.Weighting {
	case "equal", "score":
	default:
		errs = append(errs, ValidationError{"strategy.weighting", `must be "equal" or "score"`})
	}
	if strings.TrimSpace(c.Strategy.Benchmark) == "" {
		errs = append(errs, ValidationError{"strategy.benchmark", "must not be empty"})
	}

	if c.Output.SaveResults && strings.TrimSpace(c.Output.OutputDir) == "" {
		errs = append(errs, ValidationError{"output.output_dir", "required when save_results is true"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
