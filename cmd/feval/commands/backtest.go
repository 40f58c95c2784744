package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "롤링 백테스트",
	Long: `신호 파일로 롤링 멀티 포트폴리오 백테스트를 실행합니다.

백테스트는 다음을 산출합니다:
- 계좌 자산 곡선 (일별)
- 슬리브별 회전율
- 보유 종목 스냅샷
- 성과 지표 (Sharpe, Sortino, MDD, 알파/베타)

Example:
  go run ./cmd/feval backtest run --config bt.yaml`,
}

var backtestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "백테스트 실행",
	Long: `설정 YAML대로 전체 파이프라인을 실행합니다.

Example:
  go run ./cmd/feval backtest run --config bt.yaml
  go run ./cmd/feval backtest run --config bt.yaml --no-save`,
	RunE: runBacktest,
}

var backtestNoSave bool

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().BoolVar(&backtestNoSave, "no-save", false, "결과 파일 저장 생략")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	btCfg, err := btconfig.Load(btConfigPath)
	if err != nil {
		return fmt.Errorf("load backtest config: %w", err)
	}
	if backtestNoSave {
		btCfg.Output.SaveResults = false
	}
	if verbose {
		btCfg.Display.Verbose = true
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if btCfg.Display.Verbose {
		appCfg.LogLevel = "debug"
	}
	log := logger.New(appCfg)

	hash, err := btCfg.Hash()
	if err != nil {
		return err
	}
	PrintRunHeader("feval Backtest", btCfg.Basic.SignalFile, hash)

	run, cleanup, err := newRunner(appCfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := run.Run(cmd.Context(), btCfg)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	PrintOutcome(outcome)
	return nil
}
