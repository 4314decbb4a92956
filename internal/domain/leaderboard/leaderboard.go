package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

// Row is one ranked leaderboard line.
type Row struct {
	Rank   int
	UserID string
	Total  int
}

// Rank orders totals by total descending, then user id ascending, and numbers them from 1.
// Rank is the position, so tied totals get consecutive ranks.
func Rank(totals []pushup.UserTotal) []Row {
	sorted := append([]pushup.UserTotal(nil), totals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	rows := make([]Row, 0, len(sorted))
	for i, t := range sorted {
		rows = append(rows, Row{Rank: i + 1, UserID: t.UserID, Total: t.Total})
	}
	return rows
}

// Find returns the row of userID, if ranked.
func Find(rows []Row, userID string) (Row, bool) {
	for _, row := range rows {
		if row.UserID == userID {
			return row, true
		}
	}
	return Row{}, false
}

type MonthlyStats struct {
	Total      int
	Average    float64
	BestDay    int
	DaysActive int
}

// Summarize computes stats over daily totals. Callers pass one element per active day;
// duplicate dates are folded together first.
func Summarize(daily []pushup.DailyTotal) MonthlyStats {
	byDay := make(map[time.Time]int, len(daily))
	for _, d := range daily {
		if d.Total <= 0 {
			continue
		}
		byDay[calendar.Date(d.Date)] += d.Total
	}
	if len(byDay) == 0 {
		return MonthlyStats{}
	}

	stats := MonthlyStats{DaysActive: len(byDay)}
	for _, total := range byDay {
		stats.Total += total
		if total > stats.BestDay {
			stats.BestDay = total
		}
	}
	stats.Average = RoundOne(float64(stats.Total) / float64(stats.DaysActive))
	return stats
}

// RoundOne rounds to one decimal, half away from zero.
func RoundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

type DayPoint struct {
	Day   int
	Date  time.Time
	Total int
}

// DailySeries returns one point per day of the month, zero when nothing was logged.
func DailySeries(year, month int, daily []pushup.DailyTotal) []DayPoint {
	days := calendar.DaysInMonth(year, month)
	points := make([]DayPoint, days)
	for i := range points {
		points[i] = DayPoint{
			Day:  i + 1,
			Date: time.Date(year, time.Month(month), i+1, 0, 0, 0, 0, time.UTC),
		}
	}
	for _, d := range daily {
		if d.Date.Year() != year || int(d.Date.Month()) != month {
			continue
		}
		points[d.Date.Day()-1].Total += d.Total
	}
	return points
}
