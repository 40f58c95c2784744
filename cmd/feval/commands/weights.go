package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/signal"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/internal/weights"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/logger"
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "목표 비중 생성 (시뮬레이션 없이)",
	Long: `신호 → 유니버스 필터 → 목표 비중 변환까지만 수행하고
실행일별 요약을 출력합니다. 전략 점검용.

Example:
  go run ./cmd/feval weights --config bt.yaml
  go run ./cmd/feval weights --config bt.yaml --show 10`,
	RunE: runWeights,
}

var weightsShow int

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.Flags().IntVar(&weightsShow, "show", 5, "출력할 실행일 수")
}

func runWeights(cmd *cobra.Command, args []string) error {
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
	flagSource, err := universe.OpenCSVSource(btCfg.Basic.DataDir, log)
	if err != nil {
		return err
	}

	scheme, err := weights.NewScheme(btCfg.Strategy.Weighting)
	if err != nil {
		return err
	}
	gen := weights.NewGenerator(universe.NewBuilder(flagSource), store.Calendar(), scheme, btCfg.Strategy.RankN, log)
	matrix, err := gen.Generate(cmd.Context(), signals)
	if err != nil {
		return err
	}

	dates := matrix.Dates()
	fmt.Printf("Weight matrix: %d execution dates, %d shortfalls, scheme=%s\n",
		len(dates), len(matrix.Shortfalls), scheme.Name())

	shown := weightsShow
	if shown > len(dates) {
		shown = len(dates)
	}
	for _, d := range dates[:shown] {
		w, _ := matrix.Get(d)
		fmt.Printf("  %s  %d names, sum=%.6f\n", d.Format("2006-01-02"), len(w), w.Total())
		for _, code := range w.Codes() {
			fmt.Printf("      %-14s %.4f\n", code, w[code])
		}
	}

	for _, s := range matrix.Shortfalls {
		fmt.Printf("  shortfall %s: wanted %d, got %d\n",
			s.Date.Format("2006-01-02"), s.Wanted, s.Available)
	}
	return nil
}
