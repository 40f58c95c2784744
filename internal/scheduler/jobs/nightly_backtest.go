package jobs

import (
	"context"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/runner"
	"github.com/wonny/feval/pkg/logger"
)

// NightlyBacktestJob re-runs the configured strategy after every cache
// refresh so the saved results stay current with the latest data.
type NightlyBacktestJob struct {
	configPath string
	runner     *runner.Runner
	logger     *logger.Logger
}

// NewNightlyBacktestJob creates the scheduled re-run job
func NewNightlyBacktestJob(configPath string, r *runner.Runner, log *logger.Logger) *NightlyBacktestJob {
	return &NightlyBacktestJob{configPath: configPath, runner: r, logger: log}
}

// Name implements Job
func (j *NightlyBacktestJob) Name() string { return "nightly_backtest" }

// Schedule implements Job: weekdays 18:00, after market_refresh
func (j *NightlyBacktestJob) Schedule() string { return "0 0 18 * * 1-5" }

// Run implements Job. The config file is re-read every run so edits
// take effect without restarting the scheduler.
func (j *NightlyBacktestJob) Run(ctx context.Context) error {
	cfg, err := btconfig.Load(j.configPath)
	if err != nil {
		return err
	}

	outcome, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"config_hash": outcome.ConfigHash,
		"final_asset": outcome.Result.FinalAsset(),
		"files":       len(outcome.SavedFiles),
	}).Info("Nightly backtest finished")
	return nil
}
