package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(codes ...string) map[string]bool {
	s := make(map[string]bool, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

func TestCalcTurnover(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		cur  []string
		want float64
	}{
		{"three of five replaced", []string{"A", "B", "C", "D", "E"}, []string{"A", "B", "F", "G", "H"}, 0.6},
		{"identical", []string{"A", "B"}, []string{"A", "B"}, 0.0},
		{"full replacement", []string{"A", "B"}, []string{"C", "D"}, 1.0},
		{"all sold nothing bought", []string{"A", "B"}, nil, 1.0},
		{"cur superset", []string{"A"}, []string{"A", "B", "C"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcTurnover(set(tt.prev...), set(tt.cur...))
			assert.True(t, got.Defined)
			assert.InDelta(t, tt.want, got.Ratio, 1e-12)
		})
	}
}

func TestCalcTurnover_UndefinedOnEmptyPrev(t *testing.T) {
	got := CalcTurnover(nil, set("A", "B"))
	assert.False(t, got.Defined)

	got = CalcTurnover(map[string]bool{}, set("A"))
	assert.False(t, got.Defined)
}

func TestIsRebalanceDay(t *testing.T) {
	// sleeve 0, freq 5: days 0, 5, 10, ...
	assert.True(t, IsRebalanceDay(0, 0, 5))
	assert.False(t, IsRebalanceDay(0, 1, 5))
	assert.True(t, IsRebalanceDay(0, 5, 5))

	// sleeve 2 enters on day 2
	assert.False(t, IsRebalanceDay(2, 0, 5))
	assert.False(t, IsRebalanceDay(2, 1, 5))
	assert.True(t, IsRebalanceDay(2, 2, 5))
	assert.True(t, IsRebalanceDay(2, 7, 5))
	assert.False(t, IsRebalanceDay(2, 8, 5))
}

func TestIsRebalanceDay_OnePerDayWhenCountEqualsFreq(t *testing.T) {
	const count, freq = 5, 5
	for day := 0; day < 20; day++ {
		active := 0
		for sleeve := 0; sleeve < count; sleeve++ {
			if IsRebalanceDay(sleeve, day, freq) {
				active++
			}
		}
		assert.Equal(t, 1, active, "day %d", day)
	}
}
