package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/usecase"
)

const defaultCompetitionListLimit = 24

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if limit <= 0 {
		limit = defaultCompetitionListLimit
	}

	items, err := h.competitionService.ListCompetitions(ctx, statuses, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]competitionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, competitionToDTO(item, h.competitionService.DaysRemaining(item)))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetCurrentCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentCompetition")
	defer span.End()

	item, exists, err := h.competitionService.GetCurrentCompetition(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get current competition failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if !exists {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item, h.competitionService.DaysRemaining(item)))
}

func (h *Handler) GetLastCompletedCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLastCompletedCompetition")
	defer span.End()

	item, exists, err := h.competitionService.GetLastCompletedCompetition(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !exists {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item, 0))
}

func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetition")
	defer span.End()

	item, err := h.competitionService.GetCompetition(ctx, r.PathValue("competitionID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(item, h.competitionService.DaysRemaining(item)))
}

// parseStatusFilter accepts a comma separated status list, e.g. "active,completed".
func parseStatusFilter(raw string) ([]competition.Status, error) {
	var out []competition.Status
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		st, err := competition.ParseStatus(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err)
		}
		out = append(out, st)
	}
	return out, nil
}
