package backtest

import (
	"fmt"
	"sort"
	"time"
)

// Sleeve is one staggered sub-portfolio: its share of the account
// capital, held as cash plus whole-lot positions.
// ⭐ SSOT: 현금/보유 수량 변경은 이 타입의 메서드로만 수행
type Sleeve struct {
	ID        int
	Cash      float64
	Positions map[string]int64

	// StartDate/ExpireDate bound the current holding window
	// [start, expire); both zero until the first activation.
	// ExpireDate가 zero면 시뮬레이션 종료까지 열린 구간
	StartDate  time.Time
	ExpireDate time.Time
	// Active is true once the sleeve has entered its first window
	Active bool

	previous map[string]bool
}

// NewSleeve creates a sleeve holding its initial capital as cash
func NewSleeve(id int, capital float64) *Sleeve {
	return &Sleeve{
		ID:        id,
		Cash:      capital,
		Positions: make(map[string]int64),
	}
}

// Activate opens the holding window [start, expire). Called at every
// rebalance; the sleeve stays active until the run ends.
func (s *Sleeve) Activate(start, expire time.Time) {
	s.StartDate = start
	s.ExpireDate = expire
	s.Active = true
}

// Codes returns held instrument codes in ascending order
func (s *Sleeve) Codes() []string {
	codes := make([]string, 0, len(s.Positions))
	for code := range s.Positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HoldingSet returns the current holdings as a set
func (s *Sleeve) HoldingSet() map[string]bool {
	set := make(map[string]bool, len(s.Positions))
	for code := range s.Positions {
		set[code] = true
	}
	return set
}

// SnapshotPrevious captures the current holdings as the "previous"
// set. Must be called BEFORE liquidation or the turnover baseline
// is lost.
func (s *Sleeve) SnapshotPrevious() {
	s.previous = s.HoldingSet()
}

// Previous returns the holdings set captured by SnapshotPrevious.
// nil until the first snapshot.
func (s *Sleeve) Previous() map[string]bool {
	return s.previous
}

// Buy adds shares of code at price. The cash balance can never go
// negative; a buy that would overdraw is rejected.
func (s *Sleeve) Buy(code string, shares int64, price float64) error {
	if shares <= 0 {
		return fmt.Errorf("buy %s: share count %d must be positive", code, shares)
	}
	if price <= 0 {
		return fmt.Errorf("buy %s: price %.4f must be positive", code, price)
	}
	cost := float64(shares) * price
	if cost > s.Cash {
		return fmt.Errorf("buy %s: cost %.2f exceeds cash %.2f", code, cost, s.Cash)
	}
	s.Cash -= cost
	s.Positions[code] += shares
	return nil
}

// SellAll liquidates the full position in code at price and returns
// the realized proceeds
func (s *Sleeve) SellAll(code string, price float64) float64 {
	shares, ok := s.Positions[code]
	if !ok {
		return 0
	}
	proceeds := float64(shares) * price
	s.Cash += proceeds
	delete(s.Positions, code)
	return proceeds
}

// WriteOff removes the full position in code with no proceeds and
// returns the share count written off. 가격을 한 번도 관측 못 한
// 종목의 제로 가치 상각에 사용
func (s *Sleeve) WriteOff(code string) int64 {
	shares, ok := s.Positions[code]
	if !ok {
		return 0
	}
	delete(s.Positions, code)
	return shares
}

// Value marks the sleeve to market: cash plus every position priced by
// priceOf. Positions that cannot be priced contribute nothing.
func (s *Sleeve) Value(priceOf func(code string) (float64, bool)) float64 {
	total := s.Cash
	for code, shares := range s.Positions {
		if p, ok := priceOf(code); ok {
			total += float64(shares) * p
		}
	}
	return total
}
