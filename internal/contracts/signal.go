package contracts

import (
	"sort"
	"time"
)

// SignalRecord is one ranked selection: on Date, instrument Code carried Rank.
// Rank은 낮을수록 좋음 (0 = 최상위)
type SignalRecord struct {
	Date time.Time `json:"date"`
	Code string    `json:"code"`
	Rank int       `json:"rank"`
}

// SignalSet holds the parsed contents of one signal file
// ⭐ SSOT: 신호 파일 → 파이프라인 전달 계약
type SignalSet struct {
	Records []SignalRecord `json:"records"`
}

// Empty reports whether the set contains no records
func (s *SignalSet) Empty() bool {
	return len(s.Records) == 0
}

// Dates returns the distinct signal dates in ascending order
func (s *SignalSet) Dates() []time.Time {
	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0)
	for _, rec := range s.Records {
		if !seen[rec.Date] {
			seen[rec.Date] = true
			dates = append(dates, rec.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Codes returns the distinct instrument codes in ascending order
func (s *SignalSet) Codes() []string {
	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, rec := range s.Records {
		if !seen[rec.Code] {
			seen[rec.Code] = true
			codes = append(codes, rec.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

// DateRange returns the first and last signal dates.
// Empty set returns two zero times.
func (s *SignalSet) DateRange() (time.Time, time.Time) {
	dates := s.Dates()
	if len(dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return dates[0], dates[len(dates)-1]
}

// RanksByDate pivots the records into date → code → rank
func (s *SignalSet) RanksByDate() map[time.Time]map[string]int {
	pivot := make(map[time.Time]map[string]int)
	for _, rec := range s.Records {
		row, ok := pivot[rec.Date]
		if !ok {
			row = make(map[string]int)
			pivot[rec.Date] = row
		}
		// 중복 기록은 첫 값 유지 (pandas pivot_table aggfunc="first"와 동일)
		if _, exists := row[rec.Code]; !exists {
			row[rec.Code] = rec.Rank
		}
	}
	return pivot
}
