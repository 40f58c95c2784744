// Package marketdata supplies prices, the trading calendar, and benchmark
// levels to the simulation, from either a local CSV cache or Postgres.
package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

// Cache file names inside the data directory
const (
	VWAPFile        = "vwap_df.csv"
	TradingDaysFile = "trading_days.csv"
	BenchmarkFile   = "benchmark.csv"
)

// CSVStore serves market data from the local CSV cache, fully loaded
// into memory up front so the day loop never touches disk.
// ⭐ SSOT: CSV 캐시 파싱은 이 파일에서만 수행
type CSVStore struct {
	prices    map[string]map[time.Time]float64 // code → day → vwap
	calendar  *Calendar
	benchmark map[time.Time]float64
	logger    *logger.Logger
}

var (
	_ contracts.PriceSource     = (*CSVStore)(nil)
	_ contracts.CalendarSource  = (*CSVStore)(nil)
	_ contracts.BenchmarkSource = (*CSVStore)(nil)
)

// OpenCSVStore loads all three cache files from dataDir
func OpenCSVStore(dataDir string, log *logger.Logger) (*CSVStore, error) {
	s := &CSVStore{
		prices:    make(map[string]map[time.Time]float64),
		benchmark: make(map[time.Time]float64),
		logger:    log,
	}

	if err := s.loadVWAP(filepath.Join(dataDir, VWAPFile)); err != nil {
		return nil, err
	}
	if err := s.loadTradingDays(filepath.Join(dataDir, TradingDaysFile)); err != nil {
		return nil, err
	}
	if err := s.loadBenchmark(filepath.Join(dataDir, BenchmarkFile)); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"codes":        len(s.prices),
		"trading_days": s.calendar.Len(),
		"data_dir":     dataDir,
	}).Info("Market data cache loaded")

	return s, nil
}

// VWAP returns the execution price for (code, date).
// Missing entries are a recoverable gap, not an error.
func (s *CSVStore) VWAP(_ context.Context, code string, date time.Time) (float64, bool, error) {
	byDay, ok := s.prices[code]
	if !ok {
		return 0, false, nil
	}
	p, ok := byDay[contracts.Day(date)]
	if !ok || p <= 0 {
		return 0, false, nil
	}
	return p, true, nil
}

// TradingDays returns the trading days in [from, to]
func (s *CSVStore) TradingDays(_ context.Context, from, to time.Time) ([]time.Time, error) {
	return s.calendar.Slice(from, to), nil
}

// BenchmarkValue returns the benchmark index level on date
func (s *CSVStore) BenchmarkValue(_ context.Context, date time.Time) (float64, bool, error) {
	v, ok := s.benchmark[contracts.Day(date)]
	return v, ok, nil
}

// Calendar returns the full loaded trading calendar
func (s *CSVStore) Calendar() *Calendar {
	return s.calendar
}

// Codes returns every instrument code present in the price cache
func (s *CSVStore) Codes() []string {
	codes := make([]string, 0, len(s.prices))
	for code := range s.prices {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HasCode reports whether the price cache covers code at all
func (s *CSVStore) HasCode(code string) bool {
	_, ok := s.prices[code]
	return ok
}

// PriceDates returns the dates with a usable price for code
func (s *CSVStore) PriceDates(code string) []time.Time {
	byDay, ok := s.prices[code]
	if !ok {
		return nil
	}
	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// loadVWAP reads the long-format price cache:
// order_book_id,datetime,vwap[,post_vwap]
func (s *CSVStore) loadVWAP(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open price cache %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read price cache header: %w", err)
	}
	col, err := columnIndex(header, "order_book_id", "datetime", "vwap")
	if err != nil {
		return fmt.Errorf("price cache %s: %w", path, err)
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("price cache %s line %d: %w", path, line+1, err)
		}
		line++

		code := strings.TrimSpace(rec[col["order_book_id"]])
		date, err := parseCSVDate(rec[col["datetime"]])
		if err != nil {
			return fmt.Errorf("price cache %s line %d: %w", path, line, err)
		}

		raw := strings.TrimSpace(rec[col["vwap"]])
		if raw == "" || strings.EqualFold(raw, "nan") {
			continue // 결측치는 갭으로 취급
		}
		vwap, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("price cache %s line %d: invalid vwap %q", path, line, raw)
		}

		byDay, ok := s.prices[code]
		if !ok {
			byDay = make(map[time.Time]float64)
			s.prices[code] = byDay
		}
		byDay[date] = vwap
	}

	if len(s.prices) == 0 {
		return fmt.Errorf("price cache %s holds no rows", path)
	}
	return nil
}

// loadTradingDays reads the one-column calendar cache
func (s *CSVStore) loadTradingDays(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open calendar cache %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read calendar cache %s: %w", path, err)
	}

	var days []time.Time
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if i == 0 && !looksLikeDate(cell) {
			continue // header row
		}
		d, err := parseCSVDate(cell)
		if err != nil {
			return fmt.Errorf("calendar cache %s line %d: %w", path, i+1, err)
		}
		days = append(days, d)
	}

	cal, err := NewCalendar(days)
	if err != nil {
		return fmt.Errorf("calendar cache %s: %w", path, err)
	}
	s.calendar = cal
	return nil
}

// loadBenchmark reads the benchmark level cache: datetime,close
func (s *CSVStore) loadBenchmark(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open benchmark cache %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read benchmark cache header: %w", err)
	}
	col, err := columnIndex(header, "datetime", "close")
	if err != nil {
		return fmt.Errorf("benchmark cache %s: %w", path, err)
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("benchmark cache %s line %d: %w", path, line+1, err)
		}
		line++

		date, err := parseCSVDate(rec[col["datetime"]])
		if err != nil {
			return fmt.Errorf("benchmark cache %s line %d: %w", path, line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[col["close"]]), 64)
		if err != nil {
			return fmt.Errorf("benchmark cache %s line %d: invalid close", path, line)
		}
		s.benchmark[date] = v
	}

	if len(s.benchmark) == 0 {
		return fmt.Errorf("benchmark cache %s holds no rows", path)
	}
	return nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return col, nil
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "20060102", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %q", s)
}

func looksLikeDate(s string) bool {
	_, err := parseCSVDate(s)
	return err == nil
}
