package universe

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

// Mask cache file names inside the data directory. Each file is a long
// table of (datetime, order_book_id) rows where presence of a row means
// the flag is SET for that day.
const (
	STFile         = "st_mask.csv"
	SuspendedFile  = "suspended_mask.csv"
	LimitUpFile    = "limit_up_mask.csv"
	NewListingFile = "new_listing_mask.csv"
)

// CSVSource reads the four exclusion masks from the local cache
type CSVSource struct {
	flags  map[time.Time]map[string]Flags
	logger *logger.Logger
}

var _ FlagSource = (*CSVSource)(nil)

// OpenCSVSource loads all mask files from dataDir. A missing mask file
// is fatal: an absent exclusion list silently widens the universe.
func OpenCSVSource(dataDir string, log *logger.Logger) (*CSVSource, error) {
	s := &CSVSource{
		flags:  make(map[time.Time]map[string]Flags),
		logger: log,
	}

	loaders := []struct {
		file  string
		apply func(*Flags)
	}{
		{STFile, func(f *Flags) { f.ST = true }},
		{SuspendedFile, func(f *Flags) { f.Suspended = true }},
		{LimitUpFile, func(f *Flags) { f.LimitUpAtOpen = true }},
		{NewListingFile, func(f *Flags) { f.NewlyListed = true }},
	}

	total := 0
	for _, l := range loaders {
		n, err := s.loadMask(filepath.Join(dataDir, l.file), l.apply)
		if err != nil {
			return nil, err
		}
		total += n
	}

	log.WithFields(map[string]interface{}{
		"flag_rows": total,
		"days":      len(s.flags),
	}).Info("Universe masks loaded")

	return s, nil
}

// Flags returns the exclusion flags recorded for date
func (s *CSVSource) Flags(_ context.Context, date time.Time) (map[string]Flags, error) {
	row, ok := s.flags[contracts.Day(date)]
	if !ok {
		return map[string]Flags{}, nil
	}
	out := make(map[string]Flags, len(row))
	for code, f := range row {
		out[code] = f
	}
	return out, nil
}

func (s *CSVSource) loadMask(path string, apply func(*Flags)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open mask file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read mask header %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	dateIdx, ok := col["datetime"]
	if !ok {
		return 0, fmt.Errorf("mask file %s: missing column \"datetime\"", path)
	}
	codeIdx, ok := col["order_book_id"]
	if !ok {
		return 0, fmt.Errorf("mask file %s: missing column \"order_book_id\"", path)
	}

	n := 0
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("mask file %s line %d: %w", path, line+1, err)
		}
		line++

		date, err := parseMaskDate(rec[dateIdx])
		if err != nil {
			return 0, fmt.Errorf("mask file %s line %d: %w", path, line, err)
		}
		code := strings.TrimSpace(rec[codeIdx])

		byCode, ok := s.flags[date]
		if !ok {
			byCode = make(map[string]Flags)
			s.flags[date] = byCode
		}
		flags := byCode[code]
		apply(&flags)
		byCode[code] = flags
		n++
	}

	return n, nil
}

func parseMaskDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %q", s)
}
