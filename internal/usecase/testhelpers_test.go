package usecase

import (
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

var fixedNow = time.Date(2025, time.October, 15, 9, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dateOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedEntry(id, userID string, date time.Time, count int) pushup.Entry {
	return pushup.Entry{
		ID:        id,
		UserID:    userID,
		Date:      date,
		Count:     count,
		CreatedAt: date.Add(8 * time.Hour),
		UpdatedAt: date.Add(8 * time.Hour),
	}
}

func ptr[T any](v T) *T {
	return &v
}
