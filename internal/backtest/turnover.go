package backtest

import "github.com/wonny/feval/internal/contracts"

// CalcTurnover measures how much of the previous holdings set was
// replaced: (|prev| - |prev ∩ cur|) / |prev|.
//
// Name-count based, not value based: it answers "what fraction of the
// names changed", which is the replacement rate the strategy cares
// about. With no previous holdings the ratio has no denominator and
// the explicit undefined marker is returned instead of 0.
func CalcTurnover(prev, cur map[string]bool) contracts.Turnover {
	if len(prev) == 0 {
		return contracts.UndefinedTurnover()
	}

	kept := 0
	for code := range prev {
		if cur[code] {
			kept++
		}
	}
	return contracts.DefinedTurnover(float64(len(prev)-kept) / float64(len(prev)))
}
