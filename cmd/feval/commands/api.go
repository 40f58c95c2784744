package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/feval/internal/api"
	"github.com/wonny/feval/internal/api/handlers"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  POST /api/v1/backtest         - 백테스트 실행
  GET  /api/v1/results          - 저장된 결과 목록
  GET  /api/v1/results/{file}   - 결과 CSV 다운로드

Example:
  go run ./cmd/feval api
  go run ./cmd/feval api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== feval API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	run, cleanup, err := newRunner(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	backtestHandler := handlers.NewBacktestHandler(run, log)
	resultsHandler := handlers.NewResultsHandler(cfg.OutputDir, log)

	router := api.NewRouter(backtestHandler, resultsHandler, nil, log)
	server := api.New(cfg, log, router)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
