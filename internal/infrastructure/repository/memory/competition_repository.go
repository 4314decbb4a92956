package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
)

// CompetitionRepository keeps competitions in memory. writeMu serializes Mutate callbacks per process.
type CompetitionRepository struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	items   map[string]competition.Competition
	byStart map[time.Time]string
}

func NewCompetitionRepository() *CompetitionRepository {
	return &CompetitionRepository{
		items:   make(map[string]competition.Competition),
		byStart: make(map[time.Time]string),
	}
}

func (r *CompetitionRepository) Create(_ context.Context, c competition.Competition) (competition.Competition, bool, error) {
	if err := c.Validate(); err != nil {
		return competition.Competition{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byStart[c.StartDate]; exists {
		return cloneCompetition(r.items[id]), false, nil
	}
	r.items[c.ID] = cloneCompetition(c)
	r.byStart[c.StartDate] = c.ID
	return cloneCompetition(c), true, nil
}

func (r *CompetitionRepository) GetByID(_ context.Context, id string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return competition.Competition{}, false, nil
	}
	return cloneCompetition(c), true, nil
}

func (r *CompetitionRepository) GetByStartDate(_ context.Context, start time.Time) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byStart[start]
	if !ok {
		return competition.Competition{}, false, nil
	}
	return cloneCompetition(r.items[id]), true, nil
}

func (r *CompetitionRepository) FindContaining(_ context.Context, day time.Time) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found competition.Competition
		ok    bool
	)
	for _, c := range r.items {
		if !c.Window().Contains(day) {
			continue
		}
		if !ok || c.StartDate.After(found.StartDate) {
			found, ok = c, true
		}
	}
	if !ok {
		return competition.Competition{}, false, nil
	}
	return cloneCompetition(found), true, nil
}

func (r *CompetitionRepository) LastCompleted(_ context.Context) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		last competition.Competition
		ok   bool
	)
	for _, c := range r.items {
		if c.Status != competition.StatusCompleted {
			continue
		}
		if !ok || c.EndDate.After(last.EndDate) {
			last, ok = c, true
		}
	}
	if !ok {
		return competition.Competition{}, false, nil
	}
	return cloneCompetition(last), true, nil
}

func (r *CompetitionRepository) List(_ context.Context, filter competition.ListFilter) ([]competition.Competition, error) {
	statuses := make(map[competition.Status]struct{}, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = struct{}{}
	}

	r.mu.RLock()
	out := make([]competition.Competition, 0, len(r.items))
	for _, c := range r.items {
		if len(statuses) > 0 {
			if _, ok := statuses[c.Status]; !ok {
				continue
			}
		}
		if filter.OpenOnly && !c.IsOpen() {
			continue
		}
		out = append(out, cloneCompetition(c))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *CompetitionRepository) Mutate(ctx context.Context, id string, fn competition.MutateFunc) (competition.Competition, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current, exists, err := r.GetByID(ctx, id)
	if err != nil {
		return competition.Competition{}, err
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: %s", competition.ErrNotFound, id)
	}

	changed, err := fn(&current)
	if err != nil {
		return competition.Competition{}, err
	}
	if !changed {
		return current, nil
	}
	if err := current.Validate(); err != nil {
		return competition.Competition{}, err
	}

	r.mu.Lock()
	r.items[id] = cloneCompetition(current)
	r.mu.Unlock()
	return current, nil
}

func cloneCompetition(c competition.Competition) competition.Competition {
	copied := c
	if c.Winner != nil {
		w := *c.Winner
		copied.Winner = &w
	}
	return copied
}
