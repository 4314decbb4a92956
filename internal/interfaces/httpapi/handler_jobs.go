package httpapi

import (
	"fmt"
	"net/http"

	"github.com/andrei73/pushup-counter/internal/usecase"
)

func (h *Handler) RunEnsureCompetitionsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunEnsureCompetitionsJob")
	defer span.End()

	if h.jobService == nil {
		writeError(ctx, w, fmt.Errorf("%w: job service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req ensureCompetitionsJobRequest
	if err := decodeJSONBody(w, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobService.RunEnsure(ctx,
		usecase.JobRun{DispatchID: req.DispatchID, Trigger: req.Trigger},
		usecase.EnsureCompetitionsInput{Year: req.Year, Month: req.Month, Months: req.Months},
	)
	if err != nil {
		h.logger.WarnContext(ctx, "run ensure competitions job failed", "year", req.Year, "month", req.Month, "months", req.Months, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunRefreshCompetitionsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshCompetitionsJob")
	defer span.End()

	run, err := h.decodeJobRun(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobService.RunRefresh(ctx, run)
	if err != nil {
		h.logger.WarnContext(ctx, "run refresh competitions job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunRolloverJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRolloverJob")
	defer span.End()

	run, err := h.decodeJobRun(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobService.RunRollover(ctx, run)
	if err != nil {
		h.logger.WarnContext(ctx, "run rollover job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListJobDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobDispatches")
	defer span.End()

	if h.jobService == nil {
		writeError(ctx, w, fmt.Errorf("%w: job service is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	jobName := r.URL.Query().Get("job")

	events, err := h.jobService.ListDispatches(ctx, jobName, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list job dispatches failed", "job", jobName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, jobDispatchesToDTO(events))
}

func (h *Handler) decodeJobRun(w http.ResponseWriter, r *http.Request) (usecase.JobRun, error) {
	if h.jobService == nil {
		return usecase.JobRun{}, fmt.Errorf("%w: job service is not configured", usecase.ErrDependencyUnavailable)
	}

	var req competitionJobRequest
	if err := decodeJSONBody(w, r, &req, true); err != nil {
		return usecase.JobRun{}, err
	}
	if err := h.validateRequest(r.Context(), req); err != nil {
		return usecase.JobRun{}, err
	}
	return usecase.JobRun{DispatchID: req.DispatchID, Trigger: req.Trigger}, nil
}
