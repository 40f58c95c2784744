package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/feval/internal/contracts"
)

// Calendar is an ordered trading-day sequence with positional lookup
// ⭐ SSOT: 거래일 인덱스 연산은 모두 이 타입을 통함
type Calendar struct {
	days  []time.Time
	index map[time.Time]int
}

// NewCalendar builds a calendar from (possibly unordered) trading days
func NewCalendar(days []time.Time) (*Calendar, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("trading calendar is empty")
	}

	normalized := make([]time.Time, len(days))
	for i, d := range days {
		normalized[i] = contracts.Day(d)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Before(normalized[j]) })

	index := make(map[time.Time]int, len(normalized))
	for i, d := range normalized {
		if _, dup := index[d]; dup {
			return nil, fmt.Errorf("duplicate trading day %s", d.Format("2006-01-02"))
		}
		index[d] = i
	}

	return &Calendar{days: normalized, index: index}, nil
}

// Days returns the full ordered day slice
func (c *Calendar) Days() []time.Time {
	return c.days
}

// Len returns the number of trading days
func (c *Calendar) Len() int {
	return len(c.days)
}

// At returns the day at position i
func (c *Calendar) At(i int) time.Time {
	return c.days[i]
}

// Index returns the position of a trading day, if present
func (c *Calendar) Index(day time.Time) (int, bool) {
	i, ok := c.index[contracts.Day(day)]
	return i, ok
}

// Contains reports whether day is a trading day
func (c *Calendar) Contains(day time.Time) bool {
	_, ok := c.index[contracts.Day(day)]
	return ok
}

// NextOnOrAfter returns the first trading day >= day.
// 신호일이 휴장일이면 다음 거래일로 이월
func (c *Calendar) NextOnOrAfter(day time.Time) (time.Time, bool) {
	day = contracts.Day(day)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(day) })
	if i == len(c.days) {
		return time.Time{}, false
	}
	return c.days[i], true
}

// NextAfter returns the first trading day strictly after day
func (c *Calendar) NextAfter(day time.Time) (time.Time, bool) {
	day = contracts.Day(day)
	i := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(day) })
	if i == len(c.days) {
		return time.Time{}, false
	}
	return c.days[i], true
}

// Slice returns the trading days in [from, to] inclusive
func (c *Calendar) Slice(from, to time.Time) []time.Time {
	from, to = contracts.Day(from), contracts.Day(to)
	lo := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(from) })
	hi := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(to) })
	return c.days[lo:hi]
}
