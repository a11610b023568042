package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/trellisdata/trellis/internal/api/shared"
	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
	"github.com/trellisdata/trellis/internal/worker"
)

// WorkerRunner runs one bounded worker loop. Implemented by worker.Worker.
type WorkerRunner interface {
	Run(ctx context.Context, opts worker.Options) (worker.Stats, error)
}

// QueueHandler serves the queue's reporting and recovery endpoints.
type QueueHandler struct {
	runner    WorkerRunner
	txRunner  store.TxRunner
	instances store.InstanceStore
	progress  store.ProgressStore
	errorLog  store.ErrorLogStore
	logger    *slog.Logger
}

// NewQueueHandler creates a QueueHandler with the given dependencies.
func NewQueueHandler(
	runner WorkerRunner,
	txRunner store.TxRunner,
	instances store.InstanceStore,
	progress store.ProgressStore,
	errorLog store.ErrorLogStore,
	logger *slog.Logger,
) *QueueHandler {
	return &QueueHandler{
		runner:    runner,
		txRunner:  txRunner,
		instances: instances,
		progress:  progress,
		errorLog:  errorLog,
		logger:    logger.With("component", "queue_handler"),
	}
}

// GetProgress handles GET /api/progress. It reads the progress ledger, not
// the work ledger, so reporting never contends with claiming workers.
func (h *QueueHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	filter, err := regionFilterFromQuery(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid region_id")
		return
	}

	counts, err := h.progress.CountByStatus(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to aggregate progress", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to read progress")
		return
	}

	resp := ProgressResponse{Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.Counts[string(status)] = n
		resp.Total += n
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListErrors handles GET /api/errors.
func (h *QueueHandler) ListErrors(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.errorLog.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list error entries", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to read error log")
		return
	}

	resp := ErrorsResponse{Errors: make([]ErrorEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Errors = append(resp.Errors, ErrorEntryResponse{
			OccupationID: e.Key.OccupationID,
			RegionID:     e.Key.RegionID,
			TaskID:       e.Key.TaskID,
			Message:      e.Message,
			OccurredAt:   e.OccurredAt,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// TriggerRun handles POST /api/run: a synchronous, bounded worker run.
func (h *QueueHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeAndValidate(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	operator, _ := GetOperatorName(r)
	h.logger.Info("administrative run triggered",
		"operator", operator,
		"max_items", req.MaxItems)

	stats, err := h.runner.Run(r.Context(), worker.Options{
		MaxItems: req.MaxItems,
		RegionID: req.RegionID,
	})
	if err != nil {
		h.logger.Error("administrative run failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "run failed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RunResponse{
		Claimed:  stats.Claimed,
		Done:     stats.Done,
		Failed:   stats.Failed,
		Stranded: stats.Stranded,
	})
}

// ResetInstances handles POST /api/reset: the out-of-band recovery
// operation for failed instances and for rows stuck in running after a
// worker crash. Work ledger and progress ledger reset in one transaction.
func (h *QueueHandler) ResetInstances(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	statuses := make([]domain.InstanceStatus, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status, err := domain.ParseInstanceStatus(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		statuses = append(statuses, status)
	}
	filter := store.ClaimFilter{RegionID: req.RegionID}

	var reset int64
	err := h.txRunner.RunInTransaction(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		n, err := h.instances.WithTx(tx).ResetToPending(ctx, statuses, filter)
		if err != nil {
			return err
		}
		if _, err := h.progress.WithTx(tx).ResetToPending(ctx, statuses, filter); err != nil {
			return err
		}
		reset = n
		return nil
	})
	if err != nil {
		h.logger.Error("failed to reset instances", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "reset failed")
		return
	}

	operator, _ := GetOperatorName(r)
	h.logger.Info("instances reset to pending",
		"operator", operator,
		"statuses", req.Statuses,
		"count", reset)

	shared.RespondWithJSON(w, r, http.StatusOK, ResetResponse{Reset: reset})
}

// regionFilterFromQuery parses the optional region_id query parameter.
func regionFilterFromQuery(r *http.Request) (store.ClaimFilter, error) {
	raw := r.URL.Query().Get("region_id")
	if raw == "" {
		return store.ClaimFilter{}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return store.ClaimFilter{}, err
	}
	return store.ClaimFilter{RegionID: &id}, nil
}
