package contracts

import (
	"sort"
	"time"
)

// WeightVector maps instrument code → target fractional allocation.
// Produced fresh per rebalance date and consumed immediately.
type WeightVector map[string]float64

// Total returns the sum of all weights
func (w WeightVector) Total() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Codes returns instrument codes in ascending order (deterministic iteration)
func (w WeightVector) Codes() []string {
	codes := make([]string, 0, len(w))
	for code := range w {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Shortfall records a date where fewer than rank_n tradable candidates existed
type Shortfall struct {
	Date      time.Time `json:"date"`
	Wanted    int       `json:"wanted"`
	Available int       `json:"available"`
}

// WeightMatrix holds target weight vectors keyed by execution date
// ⭐ SSOT: Weight Generator → Rolling Engine 전달 계약
type WeightMatrix struct {
	ByDate     map[time.Time]WeightVector `json:"by_date"`
	Shortfalls []Shortfall                `json:"shortfalls"`
}

// NewWeightMatrix creates an empty weight matrix
func NewWeightMatrix() *WeightMatrix {
	return &WeightMatrix{ByDate: make(map[time.Time]WeightVector)}
}

// Dates returns the execution dates in ascending order
func (m *WeightMatrix) Dates() []time.Time {
	dates := make([]time.Time, 0, len(m.ByDate))
	for d := range m.ByDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Get returns the weight vector for a date, if any
func (m *WeightMatrix) Get(date time.Time) (WeightVector, bool) {
	w, ok := m.ByDate[date]
	return w, ok
}

// Empty reports whether the matrix holds no dates
func (m *WeightMatrix) Empty() bool {
	return len(m.ByDate) == 0
}
