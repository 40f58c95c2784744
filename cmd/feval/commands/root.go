package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/feval/internal/runner"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/database"
	"github.com/wonny/feval/pkg/logger"
)

var (
	// Global flags
	btConfigPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "feval",
	Short: "feval - 롤링 멀티 포트폴리오 백테스트 엔진",
	Long: `feval Unified CLI

랭킹 신호 기반 A주 전략의 롤링 백테스트 시스템.
신호 파일 → 유니버스 필터 → 목표 비중 → 시차 분산 시뮬레이션 → 성과 분석.

Usage:
  go run ./cmd/feval [command]

Examples:
  go run ./cmd/feval backtest run --config bt.yaml
  go run ./cmd/feval coverage --config bt.yaml
  go run ./cmd/feval api
  go run ./cmd/feval scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&btConfigPath, "config", "bt.yaml", "백테스트 설정 YAML 경로")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newRunner picks the market data backend: Postgres when DB_ENABLED,
// otherwise the CSV cache. cleanup releases the pool (no-op for CSV).
func newRunner(cfg *config.Config, log *logger.Logger) (*runner.Runner, func(), error) {
	if !cfg.Database.Enabled {
		return runner.New(log), func() {}, nil
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Market data backend: Postgres")
	return runner.NewWithDB(db, log), db.Close, nil
}
