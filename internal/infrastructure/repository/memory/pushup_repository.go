package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

type PushupRepository struct {
	mu    sync.RWMutex
	items map[string]pushup.Entry
}

func NewPushupRepository(seed ...pushup.Entry) *PushupRepository {
	items := make(map[string]pushup.Entry, len(seed))
	for _, e := range seed {
		items[e.ID] = e
	}
	return &PushupRepository{items: items}
}

func (r *PushupRepository) Create(_ context.Context, entry pushup.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[entry.ID]; exists {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}
	r.items[entry.ID] = entry
	return nil
}

func (r *PushupRepository) Update(_ context.Context, entry pushup.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[entry.ID]; !exists {
		return fmt.Errorf("entry %s not found", entry.ID)
	}
	r.items[entry.ID] = entry
	return nil
}

func (r *PushupRepository) Delete(_ context.Context, entryID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[entryID]; !exists {
		return false, nil
	}
	delete(r.items, entryID)
	return true, nil
}

func (r *PushupRepository) GetByID(_ context.Context, entryID string) (pushup.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[entryID]
	return e, ok, nil
}

func (r *PushupRepository) ListByUser(_ context.Context, userID string, filter pushup.HistoryFilter) ([]pushup.Entry, error) {
	r.mu.RLock()
	out := make([]pushup.Entry, 0)
	for _, e := range r.items {
		if e.UserID != userID {
			continue
		}
		if filter.Year != 0 && e.Date.Year() != filter.Year {
			continue
		}
		if filter.Month != 0 && int(e.Date.Month()) != filter.Month {
			continue
		}
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *PushupRepository) ListYears(_ context.Context, userID string) ([]int, error) {
	r.mu.RLock()
	seen := make(map[int]struct{})
	for _, e := range r.items {
		if e.UserID == userID {
			seen[e.Date.Year()] = struct{}{}
		}
	}
	r.mu.RUnlock()

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (r *PushupRepository) SumByUser(_ context.Context, userID string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, e := range r.items {
		if e.UserID == userID && inRange(e.Date, from, to) {
			total += e.Count
		}
	}
	return total, nil
}

func (r *PushupRepository) DailyTotals(_ context.Context, userID string, from, to time.Time) ([]pushup.DailyTotal, error) {
	r.mu.RLock()
	byDay := make(map[time.Time]int)
	for _, e := range r.items {
		if e.UserID == userID && inRange(e.Date, from, to) {
			byDay[e.Date] += e.Count
		}
	}
	r.mu.RUnlock()

	out := make([]pushup.DailyTotal, 0, len(byDay))
	for d, total := range byDay {
		out = append(out, pushup.DailyTotal{Date: d, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *PushupRepository) TotalsByUser(_ context.Context, from, to time.Time) ([]pushup.UserTotal, error) {
	r.mu.RLock()
	byUser := make(map[string]int)
	for _, e := range r.items {
		if inRange(e.Date, from, to) {
			byUser[e.UserID] += e.Count
		}
	}
	r.mu.RUnlock()

	out := make([]pushup.UserTotal, 0, len(byUser))
	for userID, total := range byUser {
		out = append(out, pushup.UserTotal{UserID: userID, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// inRange treats zero bounds as open.
func inRange(day, from, to time.Time) bool {
	if !from.IsZero() && day.Before(from) {
		return false
	}
	if !to.IsZero() && day.After(to) {
		return false
	}
	return true
}
