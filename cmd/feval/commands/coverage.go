package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/coverage"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/signal"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/logger"
)

// coverageCmd represents the coverage command
var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "데이터 커버리지 검사",
	Long: `시뮬레이션 없이 신호 파일과 데이터 캐시의 정합성만 검사합니다.

검사 항목:
- 신호에 등장하는 모든 종목의 가격 이력 존재 여부
- 거래일 달력이 신호 구간(+익일 실행일)을 덮는지

Example:
  go run ./cmd/feval coverage --config bt.yaml`,
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	btCfg, err := btconfig.Load(btConfigPath)
	if err != nil {
		return fmt.Errorf("load backtest config: %w", err)
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(appCfg)

	signals, err := signal.NewReader(log).Read(btCfg.Basic.SignalFile)
	if err != nil {
		return err
	}

	store, err := marketdata.OpenCSVStore(btCfg.Basic.DataDir, log)
	if err != nil {
		return err
	}

	if err := coverage.NewChecker(log).Check(signals, store, store.Calendar()); err != nil {
		return err
	}

	first, last := signals.DateRange()
	fmt.Printf("Coverage OK: %d codes, %s ~ %s (%d signal dates)\n",
		len(signals.Codes()), first.Format("2006-01-02"), last.Format("2006-01-02"), len(signals.Dates()))
	return nil
}
