// Package report persists simulation results as CSV files whose names
// embed the signal file stem, the config hash, and a run timestamp so
// any result can be traced to the exact inputs that produced it.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/feval/internal/backtest"
	"github.com/wonny/feval/internal/performance"
	"github.com/wonny/feval/pkg/logger"
)

// Writer saves one run's artifacts under the output directory
type Writer struct {
	outputDir string
	logger    *logger.Logger
}

// NewWriter creates a report writer rooted at outputDir
func NewWriter(outputDir string, log *logger.Logger) *Writer {
	return &Writer{outputDir: outputDir, logger: log}
}

// BaseName builds the shared file name prefix:
// <signal stem>_<config hash>_<timestamp>
func BaseName(signalFile, configHash string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(signalFile), filepath.Ext(signalFile))
	return fmt.Sprintf("%s_%s_%s", stem, configHash, now.Format("20060102_150405"))
}

// Save writes every artifact and returns the created file paths
func (w *Writer) Save(base string, result *backtest.Result, report *performance.Report) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", w.outputDir, err)
	}

	writers := []struct {
		suffix string
		write  func(*csv.Writer) error
	}{
		{"account", func(cw *csv.Writer) error { return w.writeAccount(cw, result) }},
		{"turnover", func(cw *csv.Writer) error { return w.writeTurnover(cw, result) }},
		{"holdings", func(cw *csv.Writer) error { return w.writeHoldings(cw, result) }},
		{"metrics", func(cw *csv.Writer) error { return w.writeMetrics(cw, report) }},
		{"annual", func(cw *csv.Writer) error { return w.writeAnnual(cw, report) }},
	}

	var paths []string
	for _, item := range writers {
		path := filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.csv", base, item.suffix))
		if err := w.writeFile(path, item.write); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	w.logger.WithFields(map[string]interface{}{
		"files": len(paths),
		"dir":   w.outputDir,
		"base":  base,
	}).Info("Results saved")

	return paths, nil
}

func (w *Writer) writeFile(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := write(cw); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeAccount(cw *csv.Writer, result *backtest.Result) error {
	if err := cw.Write([]string{"date", "total_account_asset", "cash", "benchmark"}); err != nil {
		return err
	}
	for _, row := range result.Accounts {
		rec := []string{
			row.Date.Format("2006-01-02"),
			formatFloat(row.TotalAsset),
			formatFloat(row.Cash),
			formatFloat(row.Benchmark),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeTurnover emits one column per sleeve. Undefined cells (first
// rebalance, no prior holdings) stay EMPTY — an empty cell and 0.0
// mean different things.
func (w *Writer) writeTurnover(cw *csv.Writer, result *backtest.Result) error {
	header := make([]string, 0, result.Turnover.SleeveCount+1)
	header = append(header, "date")
	for i := 0; i < result.Turnover.SleeveCount; i++ {
		header = append(header, fmt.Sprintf("p%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, date := range result.Turnover.Dates() {
		rec := make([]string, 0, len(header))
		rec = append(rec, date.Format("2006-01-02"))
		for sleeve := 0; sleeve < result.Turnover.SleeveCount; sleeve++ {
			cell := ""
			if tv, ok := result.Turnover.Get(date, sleeve); ok && tv.Defined {
				cell = formatFloat(tv.Ratio)
			}
			rec = append(rec, cell)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHoldings(cw *csv.Writer, result *backtest.Result) error {
	if err := cw.Write([]string{"date", "sleeve", "code", "shares", "weight"}); err != nil {
		return err
	}
	for _, h := range result.Holdings {
		rec := []string{
			h.Date.Format("2006-01-02"),
			strconv.Itoa(h.Sleeve),
			h.Code,
			strconv.FormatInt(h.Shares, 10),
			formatFloat(h.Weight),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeMetrics(cw *csv.Writer, report *performance.Report) error {
	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return err
	}

	m := report.Metrics
	rows := [][2]string{
		{"total_return", formatFloat(m.TotalReturn)},
		{"cagr", formatFloat(m.CAGR)},
		{"annual_volatility", formatFloat(m.AnnualVol)},
		{"sharpe", formatFloat(m.Sharpe)},
		{"sortino", formatFloat(m.Sortino)},
		{"max_drawdown", formatFloat(m.MaxDrawdown)},
		{"calmar", formatFloat(m.Calmar)},
		{"win_ratio", formatFloat(m.WinRatio)},
	}
	if m.HasBenchmark {
		rows = append(rows,
			[2]string{"benchmark_return", formatFloat(m.BenchmarkReturn)},
			[2]string{"alpha", formatFloat(m.Alpha)},
			[2]string{"beta", formatFloat(m.Beta)},
			[2]string{"tracking_error", formatFloat(m.TrackingError)},
			[2]string{"information_ratio", formatFloat(m.InformationRatio)},
		)
	}

	for _, row := range rows {
		if err := cw.Write(row[:]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeAnnual(cw *csv.Writer, report *performance.Report) error {
	if err := cw.Write([]string{"year", "strategy", "benchmark", "excess"}); err != nil {
		return err
	}
	for _, row := range report.Annual {
		rec := []string{
			strconv.Itoa(row.Year),
			formatFloat(row.Strategy),
			formatFloat(row.Benchmark),
			formatFloat(row.Excess),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
