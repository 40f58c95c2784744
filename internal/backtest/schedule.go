package backtest

// IsRebalanceDay reports whether sleeve rebalances on the dayIndex-th
// trading day of the simulation (0-based).
//
// Sleeve i sits in cash until day i, trades for the first time on day
// i, then again every freq trading days. With sleeveCount == freq this
// staggers entries so exactly one sleeve trades per day in steady state.
func IsRebalanceDay(sleeve, dayIndex, freq int) bool {
	if dayIndex < sleeve {
		return false
	}
	return (dayIndex-sleeve)%freq == 0
}
