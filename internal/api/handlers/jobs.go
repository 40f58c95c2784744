package handlers

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/wonny/feval/internal/scheduler"
	"github.com/wonny/feval/pkg/logger"
)

// JobsHandler exposes scheduler state
type JobsHandler struct {
	sched  *scheduler.Scheduler
	logger *logger.Logger
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{sched: sched, logger: log}
}

// List returns registered job names
// GET /api/v1/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.sched.Jobs()
	sort.Strings(names)
	respondJSON(w, http.StatusOK, names)
}

// History returns recent executions of one job
// GET /api/v1/jobs/{name}/history
func (h *JobsHandler) History(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	history, err := h.sched.HistoryFor(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":          name,
		"success_rate": history.SuccessRate(),
		"results":      history.Results,
	})
}

// Trigger runs a job immediately
// POST /api/v1/jobs/{name}/trigger
func (h *JobsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sched.Trigger(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "job": name})
}
