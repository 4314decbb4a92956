package httpapi

import (
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/jobscheduler"
	"github.com/andrei73/pushup-counter/internal/domain/leaderboard"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/usecase"
)

type recordEntryRequest struct {
	Count int    `json:"count" validate:"required,min=1"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note  string `json:"note" validate:"max=500"`
}

type updateEntryRequest struct {
	Count *int    `json:"count" validate:"omitempty,min=1"`
	Date  *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note  *string `json:"note" validate:"omitempty,max=500"`
}

type ensureCompetitionsJobRequest struct {
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=200"`
	Trigger    string `json:"trigger" validate:"omitempty,max=50"`
	Year       int    `json:"year" validate:"omitempty,min=1,max=9999"`
	Month      int    `json:"month" validate:"omitempty,min=1,max=12"`
	Months     int    `json:"months" validate:"omitempty,min=1,max=24"`
}

type competitionJobRequest struct {
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=200"`
	Trigger    string `json:"trigger" validate:"omitempty,max=50"`
}

type entryDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Count     int       `json:"count"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type entryHistoryDTO struct {
	Entries []entryDTO `json:"entries"`
	Years   []int      `json:"years"`
}

type monthlyStatsDTO struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Total      int     `json:"total"`
	Average    float64 `json:"average"`
	BestDay    int     `json:"bestDay"`
	DaysActive int     `json:"daysActive"`
}

type dayPointDTO struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	Total int    `json:"total"`
}

type dailyBreakdownDTO struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []dayPointDTO `json:"days"`
}

type lifetimeTotalDTO struct {
	UserID string `json:"userId"`
	Total  int    `json:"total"`
}

type leaderboardRowDTO struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Total  int    `json:"total"`
}

type leaderboardDTO struct {
	Year  int                 `json:"year"`
	Month int                 `json:"month"`
	Rows  []leaderboardRowDTO `json:"rows"`
}

type userRankDTO struct {
	Rank        int  `json:"rank,omitempty"`
	Ranked      bool `json:"ranked"`
	Total       int  `json:"total"`
	Competitors int  `json:"competitors"`
}

type winnerDTO struct {
	UserID string `json:"userId"`
	Total  int    `json:"total"`
}

type competitionDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate"`
	Status        string     `json:"status"`
	Winner        *winnerDTO `json:"winner,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type jobDispatchDTO struct {
	DispatchID   string         `json:"dispatchId"`
	JobName      string         `json:"jobName"`
	Trigger      string         `json:"trigger"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	OccurredAt   time.Time      `json:"occurredAt"`
	TraceID      string         `json:"traceId,omitempty"`
}

func jobDispatchesToDTO(events []jobscheduler.DispatchEvent) []jobDispatchDTO {
	out := make([]jobDispatchDTO, 0, len(events))
	for _, e := range events {
		out = append(out, jobDispatchDTO{
			DispatchID:   e.DispatchID,
			JobName:      e.JobName,
			Trigger:      e.Trigger,
			Status:       string(e.Status),
			Payload:      e.Payload,
			Result:       e.Result,
			ErrorMessage: e.ErrorMessage,
			OccurredAt:   e.OccurredAt,
			TraceID:      e.TraceID,
		})
	}
	return out
}

type dashboardDTO struct {
	UserID        string          `json:"userId"`
	Today         string          `json:"today"`
	TodayTotal    int             `json:"todayTotal"`
	LifetimeTotal int             `json:"lifetimeTotal"`
	Stats         monthlyStatsDTO `json:"stats"`
	Rank          userRankDTO     `json:"rank"`
	Daily         []dayPointDTO   `json:"daily"`
	Recent        []entryDTO      `json:"recent"`
	Competition   *competitionDTO `json:"competition,omitempty"`
}

type profileDTO struct {
	UserID string          `json:"userId"`
	Stats  monthlyStatsDTO `json:"stats"`
	Rank   userRankDTO     `json:"rank"`
	Recent []entryDTO      `json:"recent"`
}

func entryToDTO(e pushup.Entry) entryDTO {
	return entryDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      calendar.Format(e.Date),
		Count:     e.Count,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func entriesToDTO(items []pushup.Entry) []entryDTO {
	out := make([]entryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, entryToDTO(item))
	}
	return out
}

func monthlyStatsToDTO(year, month int, s leaderboard.MonthlyStats) monthlyStatsDTO {
	return monthlyStatsDTO{
		Year:       year,
		Month:      month,
		Total:      s.Total,
		Average:    s.Average,
		BestDay:    s.BestDay,
		DaysActive: s.DaysActive,
	}
}

func dayPointsToDTO(points []leaderboard.DayPoint) []dayPointDTO {
	out := make([]dayPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, dayPointDTO{Day: p.Day, Date: calendar.Format(p.Date), Total: p.Total})
	}
	return out
}

func leaderboardToDTO(year, month int, rows []leaderboard.Row) leaderboardDTO {
	out := leaderboardDTO{Year: year, Month: month, Rows: make([]leaderboardRowDTO, 0, len(rows))}
	for _, row := range rows {
		out.Rows = append(out.Rows, leaderboardRowDTO{Rank: row.Rank, UserID: row.UserID, Total: row.Total})
	}
	return out
}

func userRankToDTO(r usecase.UserRank) userRankDTO {
	return userRankDTO{
		Rank:        r.Rank,
		Ranked:      r.Ranked,
		Total:       r.Total,
		Competitors: r.Competitors,
	}
}

func competitionToDTO(c competition.Competition, daysRemaining int) competitionDTO {
	out := competitionDTO{
		ID:            c.ID,
		Name:          c.Name,
		StartDate:     calendar.Format(c.StartDate),
		EndDate:       calendar.Format(c.EndDate),
		Status:        string(c.Status),
		DaysRemaining: daysRemaining,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.HasWinner() {
		out.Winner = &winnerDTO{UserID: c.Winner.UserID, Total: c.Winner.Total}
	}
	return out
}

func dashboardToDTO(d usecase.Dashboard) dashboardDTO {
	out := dashboardDTO{
		UserID:        d.UserID,
		Today:         calendar.Format(d.Today),
		TodayTotal:    d.TodayTotal,
		LifetimeTotal: d.LifetimeTotal,
		Stats:         monthlyStatsToDTO(d.Year, d.Month, d.Stats),
		Rank:          userRankToDTO(d.Rank),
		Daily:         dayPointsToDTO(d.Daily),
		Recent:        entriesToDTO(d.Recent),
	}
	if d.Competition != nil {
		summary := competitionToDTO(d.Competition.Competition, d.Competition.DaysRemaining)
		out.Competition = &summary
	}
	return out
}

func profileToDTO(p usecase.Profile) profileDTO {
	return profileDTO{
		UserID: p.UserID,
		Stats:  monthlyStatsToDTO(p.Year, p.Month, p.Stats),
		Rank:   userRankToDTO(p.Rank),
		Recent: entriesToDTO(p.Recent),
	}
}
