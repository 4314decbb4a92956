package httpapi

import (
	"context"
	"net/http"
	"strings"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDashboard")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	dashboard, err := h.dashboardService.Dashboard(ctx, actor.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get dashboard failed", "user_id", actor.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dashboardToDTO(dashboard))
}

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserProfile")
	defer span.End()

	userID := strings.TrimSpace(r.PathValue("userID"))
	profile, err := h.dashboardService.Profile(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get user profile failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(profile))
}

func (h *Handler) GetMyMonthlyStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyMonthlyStats")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	year, month, err := h.queryYearMonth(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.statsService.UserMonthlyStats(ctx, actor.UserID, year, month)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, monthlyStatsToDTO(year, month, stats))
}

func (h *Handler) GetMyDailyBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyDailyBreakdown")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	year, month, err := h.queryYearMonth(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	points, err := h.statsService.DailyBreakdown(ctx, actor.UserID, year, month)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dailyBreakdownDTO{Year: year, Month: month, Days: dayPointsToDTO(points)})
}

func (h *Handler) GetMyLifetimeTotal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyLifetimeTotal")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	total, err := h.statsService.LifetimeTotal(ctx, actor.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lifetimeTotalDTO{UserID: actor.UserID, Total: total})
}

func (h *Handler) GetMonthlyLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMonthlyLeaderboard")
	defer span.End()

	year, err := pathInt(r, "year")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.writeLeaderboard(ctx, w, year, month)
}

func (h *Handler) GetCurrentLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentLeaderboard")
	defer span.End()

	year, month := h.statsService.CurrentMonth()
	h.writeLeaderboard(ctx, w, year, month)
}

func (h *Handler) writeLeaderboard(ctx context.Context, w http.ResponseWriter, year, month int) {
	rows, err := h.statsService.MonthlyLeaderboard(ctx, year, month)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "year", year, "month", month, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(year, month, rows))
}
