package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, elevatedRoles []string) {
	auth := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, elevatedRoles, fn)
	}

	registerEntryRoutes(mux, handler, auth)
	registerStatsRoutes(mux, handler, auth)
	registerCompetitionRoutes(mux, handler, auth)
}

func registerEntryRoutes(mux *http.ServeMux, handler *Handler, auth func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /v1/entries", auth(handler.RecordEntry))
	mux.Handle("GET /v1/entries", auth(handler.ListEntryHistory))
	mux.Handle("GET /v1/entries/recent", auth(handler.ListRecentEntries))
	mux.Handle("GET /v1/entries/{entryID}", auth(handler.GetEntry))
	mux.Handle("PUT /v1/entries/{entryID}", auth(handler.UpdateEntry))
	mux.Handle("DELETE /v1/entries/{entryID}", auth(handler.DeleteEntry))
}

func registerStatsRoutes(mux *http.ServeMux, handler *Handler, auth func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /v1/me/dashboard", auth(handler.GetDashboard))
	mux.Handle("GET /v1/me/stats", auth(handler.GetMyMonthlyStats))
	mux.Handle("GET /v1/me/daily", auth(handler.GetMyDailyBreakdown))
	mux.Handle("GET /v1/me/lifetime", auth(handler.GetMyLifetimeTotal))
	mux.Handle("GET /v1/users/{userID}/profile", auth(handler.GetUserProfile))
	mux.Handle("GET /v1/leaderboards/current", auth(handler.GetCurrentLeaderboard))
	mux.Handle("GET /v1/leaderboards/{year}/{month}", auth(handler.GetMonthlyLeaderboard))
}

func registerCompetitionRoutes(mux *http.ServeMux, handler *Handler, auth func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /v1/competitions", auth(handler.ListCompetitions))
	mux.Handle("GET /v1/competitions/current", auth(handler.GetCurrentCompetition))
	mux.Handle("GET /v1/competitions/last-completed", auth(handler.GetLastCompletedCompetition))
	mux.Handle("GET /v1/competitions/{competitionID}", auth(handler.GetCompetition))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/competitions/ensure", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunEnsureCompetitionsJob)))
	mux.Handle("POST /v1/internal/jobs/competitions/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshCompetitionsJob)))
	mux.Handle("POST /v1/internal/jobs/competitions/rollover", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRolloverJob)))
	mux.Handle("GET /v1/internal/jobs/dispatches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListJobDispatches)))
}
