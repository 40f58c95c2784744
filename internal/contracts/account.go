package contracts

import (
	"sort"
	"time"
)

// AccountRow is one aggregate equity-curve observation (all sleeves combined)
type AccountRow struct {
	Date       time.Time `json:"date"`
	TotalAsset float64   `json:"total_account_asset"`
	Cash       float64   `json:"cash"`
	Benchmark  float64   `json:"benchmark"`
}

// HoldingRow is one (date, sleeve, instrument) holdings snapshot entry
type HoldingRow struct {
	Date   time.Time `json:"date"`
	Sleeve int       `json:"sleeve"`
	Code   string    `json:"code"`
	Shares int64     `json:"shares"`
	Weight float64   `json:"weight"`
}

// Turnover is a turnover ratio or the explicit undefined marker.
// Undefined(첫 리밸런스)는 0과 의미가 다름 — 절대 0으로 대체하지 말 것
type Turnover struct {
	Defined bool    `json:"defined"`
	Ratio   float64 `json:"ratio"`
}

// UndefinedTurnover returns the explicit "no prior holdings" marker
func UndefinedTurnover() Turnover {
	return Turnover{Defined: false}
}

// DefinedTurnover returns a concrete turnover ratio in [0,1]
func DefinedTurnover(ratio float64) Turnover {
	return Turnover{Defined: true, Ratio: ratio}
}

// TurnoverTable is date × sleeve → turnover ratio or undefined
type TurnoverTable struct {
	SleeveCount int
	Cells       map[time.Time]map[int]Turnover
}

// NewTurnoverTable creates an empty table for sleeveCount sleeves
func NewTurnoverTable(sleeveCount int) *TurnoverTable {
	return &TurnoverTable{
		SleeveCount: sleeveCount,
		Cells:       make(map[time.Time]map[int]Turnover),
	}
}

// Set records the turnover for (date, sleeve)
func (t *TurnoverTable) Set(date time.Time, sleeve int, value Turnover) {
	row, ok := t.Cells[date]
	if !ok {
		row = make(map[int]Turnover)
		t.Cells[date] = row
	}
	row[sleeve] = value
}

// Get returns the turnover for (date, sleeve), if recorded
func (t *TurnoverTable) Get(date time.Time, sleeve int) (Turnover, bool) {
	row, ok := t.Cells[date]
	if !ok {
		return Turnover{}, false
	}
	v, ok := row[sleeve]
	return v, ok
}

// Dates returns the rebalance dates in ascending order
func (t *TurnoverTable) Dates() []time.Time {
	dates := make([]time.Time, 0, len(t.Cells))
	for d := range t.Cells {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Mean returns the average of defined ratios for one sleeve column
func (t *TurnoverTable) Mean(sleeve int) (float64, bool) {
	sum := 0.0
	n := 0
	for _, row := range t.Cells {
		if v, ok := row[sleeve]; ok && v.Defined {
			sum += v.Ratio
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
