package coverage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/pkg/logger"
)

type inventory map[string]bool

func (i inventory) HasCode(code string) bool { return i[code] }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func signals(dates []time.Time, codes ...string) *contracts.SignalSet {
	set := &contracts.SignalSet{}
	for _, d := range dates {
		for i, c := range codes {
			set.Records = append(set.Records, contracts.SignalRecord{Date: d, Code: c, Rank: i})
		}
	}
	return set
}

func cal(t *testing.T, days ...time.Time) *marketdata.Calendar {
	t.Helper()
	c, err := marketdata.NewCalendar(days)
	require.NoError(t, err)
	return c
}

func TestCheck_Pass(t *testing.T) {
	c := NewChecker(logger.NewNop())
	set := signals([]time.Time{day(2023, 1, 3)}, "600519.XSHG")
	calendar := cal(t, day(2023, 1, 3), day(2023, 1, 4))

	err := c.Check(set, inventory{"600519.XSHG": true}, calendar)
	assert.NoError(t, err)
}

func TestCheck_MissingCode(t *testing.T) {
	c := NewChecker(logger.NewNop())
	set := signals([]time.Time{day(2023, 1, 3)}, "600519.XSHG", "000001.XSHE")
	calendar := cal(t, day(2023, 1, 3), day(2023, 1, 4))

	err := c.Check(set, inventory{"600519.XSHG": true}, calendar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001.XSHE")
	assert.NotContains(t, err.Error(), "600519.XSHG,")
}

func TestCheck_NoExecutionDayAfterLastSignal(t *testing.T) {
	c := NewChecker(logger.NewNop())
	set := signals([]time.Time{day(2023, 1, 4)}, "600519.XSHG")
	calendar := cal(t, day(2023, 1, 3), day(2023, 1, 4)) // 익일 없음

	err := c.Check(set, inventory{"600519.XSHG": true}, calendar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trading day after")
}

func TestCheck_CalendarStartsTooLate(t *testing.T) {
	c := NewChecker(logger.NewNop())
	set := signals([]time.Time{day(2023, 1, 3)}, "600519.XSHG")
	calendar := cal(t, day(2023, 1, 5), day(2023, 1, 6))

	err := c.Check(set, inventory{"600519.XSHG": true}, calendar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starts after")
}

func TestCheck_OffenderListCapped(t *testing.T) {
	c := NewChecker(logger.NewNop())

	codes := make([]string, 15)
	for i := range codes {
		codes[i] = fmt.Sprintf("%06d.XSHE", i+1)
	}
	set := signals([]time.Time{day(2023, 1, 3)}, codes...)
	calendar := cal(t, day(2023, 1, 3), day(2023, 1, 4))

	err := c.Check(set, inventory{}, calendar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "and 5 more")
}
