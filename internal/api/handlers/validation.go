package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"rostervet/internal/service"
)

// One paced batch can take minutes; runs are executed off-request and the
// last report is kept for polling.
const runTimeout = 10 * time.Minute

// ValidationHandler triggers validation batches and reports on the last run.
// At most one run executes at a time; the per-authority pacing gates make a
// second concurrent run pointless anyway.
type ValidationHandler struct {
	orch      *service.Orchestrator
	batchSize int
	logger    *zap.Logger

	mu         sync.Mutex
	running    bool
	lastReport *service.BatchReport
}

func NewValidationHandler(orch *service.Orchestrator, batchSize int, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{orch: orch, batchSize: batchSize, logger: logger}
}

type runRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}

type runResponse struct {
	Accepted  bool `json:"accepted"`
	BatchSize int  `json:"batch_size"`
}

func (h *ValidationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	batchSize := h.batchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "a validation run is already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		report, err := h.orch.Run(ctx, batchSize)

		h.mu.Lock()
		h.running = false
		if err != nil {
			h.logger.Error("validation run failed", zap.Error(err))
		} else {
			h.lastReport = report
		}
		h.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, runResponse{Accepted: true, BatchSize: batchSize})
}

type reportResponse struct {
	Running    bool                 `json:"running"`
	LastReport *service.BatchReport `json:"last_report,omitempty"`
}

func (h *ValidationHandler) Report(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := reportResponse{Running: h.running, LastReport: h.lastReport}
	h.mu.Unlock()

	if !resp.Running && resp.LastReport == nil {
		writeError(w, http.StatusNotFound, "no validation run yet")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
