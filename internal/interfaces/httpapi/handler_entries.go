package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/usecase"
)

func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordEntry")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req recordEntryRequest
	if err := decodeJSONBody(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.RecordEntryInput{Actor: actor, Count: req.Count, Note: req.Note}
	if req.Date != "" {
		date, err := parseRequestDate(req.Date)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		input.Date = &date
	}

	entry, err := h.entryService.RecordEntry(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "record entry failed", "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, entryToDTO(entry))
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateEntry")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateEntryRequest
	if err := decodeJSONBody(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entryID := strings.TrimSpace(r.PathValue("entryID"))
	input := usecase.UpdateEntryInput{
		Actor:   actor,
		EntryID: entryID,
		Count:   req.Count,
		Note:    req.Note,
	}
	if req.Date != nil {
		date, err := parseRequestDate(*req.Date)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		input.Date = &date
	}

	entry, err := h.entryService.UpdateEntry(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update entry failed", "entry_id", entryID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryToDTO(entry))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteEntry")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entryID := strings.TrimSpace(r.PathValue("entryID"))
	if err := h.entryService.DeleteEntry(ctx, actor, entryID); err != nil {
		h.logger.WarnContext(ctx, "delete entry failed", "entry_id", entryID, "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": entryID, "status": "deleted"})
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntry")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, err := h.entryService.GetEntry(ctx, actor, r.PathValue("entryID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryToDTO(entry))
}

func (h *Handler) ListEntryHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEntryHistory")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	history, err := h.entryService.ListHistory(ctx, actor.UserID, year, month)
	if err != nil {
		h.logger.WarnContext(ctx, "list entry history failed", "user_id", actor.UserID, "year", year, "month", month, "error", err)
		writeError(ctx, w, err)
		return
	}

	years := history.Years
	if years == nil {
		years = []int{}
	}
	writeSuccess(ctx, w, http.StatusOK, entryHistoryDTO{
		Entries: entriesToDTO(history.Entries),
		Years:   years,
	})
}

func (h *Handler) ListRecentEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRecentEntries")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.entryService.RecentEntries(ctx, actor.UserID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entriesToDTO(entries))
}

func parseRequestDate(raw string) (time.Time, error) {
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err)
	}
	return date, nil
}
