package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/feval/internal/btconfig"
	"github.com/wonny/feval/internal/runner"
	"github.com/wonny/feval/pkg/logger"
)

// BacktestHandler runs simulations over HTTP
// ⭐ SSOT: 백테스트 API 핸들러는 이 구조체에서만
type BacktestHandler struct {
	runner *runner.Runner
	logger *logger.Logger
}

// NewBacktestHandler creates a backtest handler
func NewBacktestHandler(r *runner.Runner, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{runner: r, logger: log}
}

// RunRequest selects the config for one run
type RunRequest struct {
	ConfigPath string `json:"config_path"`
}

// RunResponse summarizes one finished run
type RunResponse struct {
	ConfigHash  string   `json:"config_hash"`
	FinalAsset  float64  `json:"final_asset"`
	TotalReturn float64  `json:"total_return"`
	Sharpe      float64  `json:"sharpe"`
	MaxDrawdown float64  `json:"max_drawdown"`
	Events      int      `json:"events"`
	SavedFiles  []string `json:"saved_files"`
}

// Run executes a backtest synchronously
// POST /api/v1/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConfigPath == "" {
		respondError(w, http.StatusBadRequest, "config_path is required")
		return
	}

	cfg, err := btconfig.Load(req.ConfigPath)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load backtest config")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.runner.Run(r.Context(), cfg)
	if err != nil {
		h.logger.WithError(err).Error("Backtest run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		ConfigHash:  outcome.ConfigHash,
		FinalAsset:  outcome.Result.FinalAsset(),
		TotalReturn: outcome.Report.Metrics.TotalReturn,
		Sharpe:      outcome.Report.Metrics.Sharpe,
		MaxDrawdown: outcome.Report.Metrics.MaxDrawdown,
		Events:      len(outcome.Result.Events),
		SavedFiles:  outcome.SavedFiles,
	})
}
