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
	"github.com/wonny/feval/internal/external/ricequant"
	"github.com/wonny/feval/internal/marketdata"
	"github.com/wonny/feval/internal/runner"
	"github.com/wonny/feval/internal/scheduler"
	"github.com/wonny/feval/internal/scheduler/jobs"
	"github.com/wonny/feval/internal/universe"
	"github.com/wonny/feval/pkg/config"
	"github.com/wonny/feval/pkg/database"
	"github.com/wonny/feval/pkg/httputil"
	"github.com/wonny/feval/pkg/logger"
	"github.com/wonny/feval/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `야간 데이터 갱신과 정기 백테스트를 돌리는 스케줄러를 시작합니다.

Jobs:
  market_refresh    - 평일 17:30, 벤더에서 VWAP/달력/벤치마크/제외 플래그 갱신 (Postgres)
  nightly_backtest  - 평일 18:00, 설정된 전략 재실행

--with-api를 주면 잡 상태 조회/수동 트리거용 API 서버를 함께 띄웁니다:
  GET  /api/v1/jobs
  GET  /api/v1/jobs/{name}/history
  POST /api/v1/jobs/{name}/trigger

Example:
  go run ./cmd/feval scheduler --benchmark 000985.XSHG
  go run ./cmd/feval scheduler --with-api`,
	RunE: runScheduler,
}

var (
	schedulerBenchmark string
	schedulerWithAPI   bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringVar(&schedulerBenchmark, "benchmark", "000985.XSHG", "갱신할 벤치마크 지수 코드")
	schedulerCmd.Flags().BoolVar(&schedulerWithAPI, "with-api", false, "잡 관리 API 서버 동시 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== feval Scheduler ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	// 갱신 잡들이 Postgres 캐시를 쓰고 읽으므로 DB 필수
	if !cfg.Database.Enabled {
		return fmt.Errorf("scheduler requires DB_ENABLED=true")
	}
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "feval")

	httpClient := httputil.New(log)
	vendor := ricequant.New(cfg.RiceQuant, httpClient, cache, log)
	marketRepo := marketdata.NewRepository(db, log)
	flagRepo := universe.NewRepository(db, log)

	run := runner.NewWithDB(db, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewMarketRefreshJob(vendor, marketRepo, flagRepo, schedulerBenchmark, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewNightlyBacktestJob(btConfigPath, run, log)); err != nil {
		return err
	}

	sched.Start()
	log.WithField("jobs", len(sched.Jobs())).Info("Scheduler running")

	// 잡 관리 API (선택): 백테스트/결과 핸들러에 잡 핸들러까지 연결
	var server *api.Server
	errCh := make(chan error, 1)
	if schedulerWithAPI {
		router := api.NewRouter(
			handlers.NewBacktestHandler(run, log),
			handlers.NewResultsHandler(cfg.OutputDir, log),
			handlers.NewJobsHandler(sched, log),
			log,
		)
		server = api.New(cfg, log, router)
		go func() { errCh <- server.Start() }()
		log.WithField("port", cfg.Port).Info("Job management API running")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("API shutdown failed")
		}
	}
	sched.Stop()
	return nil
}
