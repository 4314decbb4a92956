package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	basecache "github.com/andrei73/pushup-counter/internal/platform/cache"
)

const (
	boardKeyPrefix = "pushup:board:"
	userKeyPrefix  = "pushup:user:"
	entryKeyPrefix = "pushup:entry:"
)

// PushupRepository caches aggregate reads of the wrapped repository. Every write drops the
// leaderboard keys and the keys of the affected user.
type PushupRepository struct {
	next  pushup.Repository
	cache *basecache.Store
}

func NewPushupRepository(next pushup.Repository, cache *basecache.Store) *PushupRepository {
	return &PushupRepository{next: next, cache: cache}
}

func (r *PushupRepository) Create(ctx context.Context, entry pushup.Entry) error {
	if err := r.next.Create(ctx, entry); err != nil {
		return err
	}
	r.invalidate(ctx, entry.UserID, "")
	return nil
}

func (r *PushupRepository) Update(ctx context.Context, entry pushup.Entry) error {
	if err := r.next.Update(ctx, entry); err != nil {
		return err
	}
	r.invalidate(ctx, entry.UserID, entry.ID)
	return nil
}

func (r *PushupRepository) Delete(ctx context.Context, entryID string) (bool, error) {
	existing, exists, err := r.next.GetByID(ctx, entryID)
	if err != nil {
		return false, err
	}

	deleted, err := r.next.Delete(ctx, entryID)
	if err != nil {
		return false, err
	}
	if exists {
		r.invalidate(ctx, existing.UserID, entryID)
	} else {
		r.cache.Delete(ctx, entryKeyPrefix+entryID)
	}
	return deleted, nil
}

func (r *PushupRepository) GetByID(ctx context.Context, entryID string) (pushup.Entry, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, entryKeyPrefix+entryID, func(ctx context.Context) (cachedEntry, error) {
		item, exists, err := r.next.GetByID(ctx, entryID)
		if err != nil {
			return cachedEntry{}, err
		}
		return cachedEntry{value: item, exists: exists}, nil
	})
	if err != nil {
		return pushup.Entry{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *PushupRepository) ListByUser(ctx context.Context, userID string, filter pushup.HistoryFilter) ([]pushup.Entry, error) {
	key := userKey(userID, "list", strconv.Itoa(filter.Year), strconv.Itoa(filter.Month), strconv.Itoa(filter.Limit))
	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]pushup.Entry, error) {
		return r.next.ListByUser(ctx, userID, filter)
	})
	if err != nil {
		return nil, err
	}
	return append([]pushup.Entry(nil), items...), nil
}

func (r *PushupRepository) ListYears(ctx context.Context, userID string) ([]int, error) {
	items, err := basecache.Load(ctx, r.cache, userKey(userID, "years"), func(ctx context.Context) ([]int, error) {
		return r.next.ListYears(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return append([]int(nil), items...), nil
}

func (r *PushupRepository) SumByUser(ctx context.Context, userID string, from, to time.Time) (int, error) {
	return basecache.Load(ctx, r.cache, userKey(userID, "sum", rangeKey(from, to)), func(ctx context.Context) (int, error) {
		return r.next.SumByUser(ctx, userID, from, to)
	})
}

func (r *PushupRepository) DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]pushup.DailyTotal, error) {
	items, err := basecache.Load(ctx, r.cache, userKey(userID, "daily", rangeKey(from, to)), func(ctx context.Context) ([]pushup.DailyTotal, error) {
		return r.next.DailyTotals(ctx, userID, from, to)
	})
	if err != nil {
		return nil, err
	}
	return append([]pushup.DailyTotal(nil), items...), nil
}

func (r *PushupRepository) TotalsByUser(ctx context.Context, from, to time.Time) ([]pushup.UserTotal, error) {
	items, err := basecache.Load(ctx, r.cache, boardKeyPrefix+rangeKey(from, to), func(ctx context.Context) ([]pushup.UserTotal, error) {
		return r.next.TotalsByUser(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return append([]pushup.UserTotal(nil), items...), nil
}

func (r *PushupRepository) invalidate(ctx context.Context, userID, entryID string) {
	r.cache.DeletePrefix(ctx, boardKeyPrefix)
	r.cache.DeletePrefix(ctx, userKeyPrefix+userID+":")
	if entryID != "" {
		r.cache.Delete(ctx, entryKeyPrefix+entryID)
	}
}

type cachedEntry struct {
	value  pushup.Entry
	exists bool
}

func userKey(userID string, parts ...string) string {
	key := userKeyPrefix + userID
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func rangeKey(from, to time.Time) string {
	return formatBound(from) + ".." + formatBound(to)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return calendar.Format(t)
}
