// Package signal parses ranked stock-selection files into SignalSets.
//
// Two line formats are supported and auto-detected from the first
// non-empty line:
//
//	compact:  20230103_600519        (rank = order of appearance per day)
//	tabular:  2023-01-03 600519 1    (explicit rank column)
package signal

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

// Format identifies the detected signal file layout
type Format string

const (
	FormatCompact Format = "compact"
	FormatTabular Format = "tabular"
)

// Reader parses signal files into the pipeline contract
type Reader struct {
	logger *logger.Logger
}

// NewReader creates a signal file reader
func NewReader(log *logger.Logger) *Reader {
	return &Reader{logger: log}
}

// Read parses the file at path, auto-detecting the format
func (r *Reader) Read(path string) (*contracts.SignalSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal file %s: %w", path, err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read signal file %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("signal file %s is empty", path)
	}

	format, err := DetectFormat(lines[0])
	if err != nil {
		return nil, fmt.Errorf("signal file %s: %w", path, err)
	}

	r.logger.WithFields(map[string]interface{}{
		"path":   path,
		"format": string(format),
		"lines":  len(lines),
	}).Info("Parsing signal file")

	var set *contracts.SignalSet
	switch format {
	case FormatCompact:
		set, err = r.parseCompact(lines)
	case FormatTabular:
		set, err = r.parseTabular(lines)
	}
	if err != nil {
		return nil, fmt.Errorf("signal file %s: %w", path, err)
	}

	if set.Empty() {
		return nil, fmt.Errorf("signal file %s produced no records", path)
	}

	first, last := set.DateRange()
	r.logger.WithFields(map[string]interface{}{
		"records": len(set.Records),
		"dates":   len(set.Dates()),
		"codes":   len(set.Codes()),
		"first":   first.Format("2006-01-02"),
		"last":    last.Format("2006-01-02"),
	}).Info("Signal file parsed")

	return set, nil
}

// DetectFormat inspects a sample line: a single underscore-joined token
// means compact, whitespace-separated fields mean tabular.
func DetectFormat(line string) (Format, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && strings.Contains(fields[0], "_"):
		return FormatCompact, nil
	case len(fields) >= 3:
		return FormatTabular, nil
	default:
		return "", fmt.Errorf("unrecognized signal line format: %q", line)
	}
}

// parseCompact handles "YYYYMMDD_code" lines. Rank is assigned by order
// of appearance within each date (first listed = rank 0 = best).
func (r *Reader) parseCompact(lines []string) (*contracts.SignalSet, error) {
	set := &contracts.SignalSet{}
	perDay := make(map[time.Time]int)

	for i, line := range lines {
		parts := strings.SplitN(line, "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected YYYYMMDD_code, got %q", i+1, line)
		}

		date, err := time.Parse("20060102", parts[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", i+1, parts[0], err)
		}
		date = contracts.Day(date)

		code, matched := NormalizeCode(parts[1])
		if !matched {
			r.logger.Warnf("line %d: code %q matches no exchange rule, keeping as-is", i+1, parts[1])
		}

		set.Records = append(set.Records, contracts.SignalRecord{
			Date: date,
			Code: code,
			Rank: perDay[date],
		})
		perDay[date]++
	}

	return set, nil
}

// parseTabular handles "date code rank" lines with whitespace separation
func (r *Reader) parseTabular(lines []string) (*contracts.SignalSet, error) {
	set := &contracts.SignalSet{}

	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected 'date code rank', got %q", i+1, line)
		}

		date, err := parseDate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", i+1, fields[0], err)
		}

		code, matched := NormalizeCode(fields[1])
		if !matched {
			r.logger.Warnf("line %d: code %q matches no exchange rule, keeping as-is", i+1, fields[1])
		}

		rank, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rank %q: %w", i+1, fields[2], err)
		}

		set.Records = append(set.Records, contracts.SignalRecord{
			Date: date,
			Code: code,
			Rank: rank,
		})
	}

	return set, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date layout")
}

// NormalizeCode appends the exchange suffix inferred from the numeric
// code prefix. Codes that already carry a suffix pass through unchanged.
// A code matching no rule is returned as-is with matched=false so the
// caller can warn; it is never rejected.
//
//	60, 68        → .XSHG  (상해)
//	00, 30        → .XSHE  (심천)
//	43, 83, 87, 92 → .BJSE (북경)
func NormalizeCode(code string) (normalized string, matched bool) {
	code = strings.TrimSpace(code)
	if strings.Contains(code, ".") {
		return code, true
	}

	switch {
	case hasAnyPrefix(code, "60", "68"):
		return code + ".XSHG", true
	case hasAnyPrefix(code, "00", "30"):
		return code + ".XSHE", true
	case hasAnyPrefix(code, "43", "83", "87", "92"):
		return code + ".BJSE", true
	default:
		return code, false
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func readLines(f *os.File) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
