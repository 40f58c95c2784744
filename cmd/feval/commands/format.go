package commands

import (
	"fmt"
	"time"

	"github.com/wonny/feval/internal/performance"
	"github.com/wonny/feval/internal/runner"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintRunHeader prints a formatted run header
func PrintRunHeader(title, signalFile, configHash string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Signal    : %s\n", signalFile)
	fmt.Printf("  Config    : %s\n", configHash)
	fmt.Printf("  Started   : %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintOutcome prints the run summary block
func PrintOutcome(outcome *runner.Outcome) {
	fmt.Println()
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Final Asset   : %15.2f\n", outcome.Result.FinalAsset())
	fmt.Printf("  Diagnostics   : %d recoverable events\n", len(outcome.Result.Events))
	fmt.Printf("  Elapsed       : %s\n", outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond))
	PrintMetrics(&outcome.Report.Metrics)

	if len(outcome.Report.Annual) > 0 {
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Println("  Year     Strategy   Benchmark      Excess")
		for _, row := range outcome.Report.Annual {
			fmt.Printf("  %d   %8.2f%%   %8.2f%%   %8.2f%%\n",
				row.Year, row.Strategy*100, row.Benchmark*100, row.Excess*100)
		}
	}

	if len(outcome.SavedFiles) > 0 {
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Println("  Saved files:")
		for _, p := range outcome.SavedFiles {
			fmt.Printf("    %s\n", p)
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintMetrics prints the performance metric block
func PrintMetrics(m *performance.Metrics) {
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Total Return  : %8.2f%%\n", m.TotalReturn*100)
	fmt.Printf("  CAGR          : %8.2f%%\n", m.CAGR*100)
	fmt.Printf("  Volatility    : %8.2f%%\n", m.AnnualVol*100)
	fmt.Printf("  Sharpe        : %8.2f\n", m.Sharpe)
	fmt.Printf("  Sortino       : %8.2f\n", m.Sortino)
	fmt.Printf("  Max Drawdown  : %8.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  Calmar        : %8.2f\n", m.Calmar)
	fmt.Printf("  Win Ratio     : %8.2f%%\n", m.WinRatio*100)
	if m.HasBenchmark {
		fmt.Printf("  Benchmark     : %8.2f%%\n", m.BenchmarkReturn*100)
		fmt.Printf("  Alpha         : %8.2f%%\n", m.Alpha*100)
		fmt.Printf("  Beta          : %8.2f\n", m.Beta)
		fmt.Printf("  Tracking Err  : %8.2f%%\n", m.TrackingError*100)
		fmt.Printf("  Info Ratio    : %8.2f\n", m.InformationRatio)
	}
}
