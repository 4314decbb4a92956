package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	idgen "github.com/andrei73/pushup-counter/internal/platform/id"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
)

const (
	defaultRecentEntries = 10
	maxRecentEntries     = 100
)

type RecordEntryInput struct {
	Actor pushup.Actor
	// Date defaults to the actor's today.
	Date  *time.Time
	Count int
	Note  string
}

// UpdateEntryInput carries optional fields; nil leaves the stored value untouched.
type UpdateEntryInput struct {
	Actor   pushup.Actor
	EntryID string
	Count   *int
	Date    *time.Time
	Note    *string
}

type History struct {
	Entries []pushup.Entry
	Years   []int
}

// EntryMetrics is satisfied by the prometheus collectors.
type EntryMetrics interface {
	EntryRecorded(count int)
}

type noopEntryMetrics struct{}

func (noopEntryMetrics) EntryRecorded(int) {}

type EntryService struct {
	clock
	entries pushup.Repository
	idGen   idgen.Generator
	metrics EntryMetrics
	logger  *logging.Logger
}

func NewEntryService(
	entries pushup.Repository,
	idGen idgen.Generator,
	metrics EntryMetrics,
	location *time.Location,
	logger *logging.Logger,
) *EntryService {
	if metrics == nil {
		metrics = noopEntryMetrics{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}

	return &EntryService{
		clock:   newClock(location),
		entries: entries,
		idGen:   idGen,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *EntryService) RecordEntry(ctx context.Context, input RecordEntryInput) (pushup.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.RecordEntry", actorAttrs(input.Actor)...)
	defer span.End()

	actor := normalizeActor(input.Actor)
	if actor.UserID == "" {
		return pushup.Entry{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	today := s.today()
	date := today
	if input.Date != nil {
		date = calendar.Date(*input.Date)
	}
	if err := actor.CheckDate(date, today); err != nil {
		return pushup.Entry{}, classifyDomainError(err)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return pushup.Entry{}, fmt.Errorf("generate entry id: %w", err)
	}

	now := s.now().UTC()
	entry := pushup.Entry{
		ID:        id,
		UserID:    actor.UserID,
		Date:      date,
		Count:     input.Count,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := entry.Validate(); err != nil {
		return pushup.Entry{}, classifyDomainError(err)
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return pushup.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	s.metrics.EntryRecorded(entry.Count)
	s.logger.DebugContext(ctx, "pushup entry recorded",
		"entry_id", entry.ID,
		"user_id", entry.UserID,
		"date", calendar.Format(entry.Date),
		"count", entry.Count,
	)

	return entry, nil
}

func (s *EntryService) UpdateEntry(ctx context.Context, input UpdateEntryInput) (pushup.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.UpdateEntry", append(actorAttrs(input.Actor), entryAttr(input.EntryID))...)
	defer span.End()

	actor := normalizeActor(input.Actor)
	entry, err := s.loadOwned(ctx, actor, input.EntryID)
	if err != nil {
		return pushup.Entry{}, err
	}

	if input.Date != nil {
		date := calendar.Date(*input.Date)
		if err := actor.CheckDate(date, s.today()); err != nil {
			return pushup.Entry{}, classifyDomainError(err)
		}
		entry.Date = date
	}
	if input.Count != nil {
		entry.Count = *input.Count
	}
	if input.Note != nil {
		entry.Note = strings.TrimSpace(*input.Note)
	}
	if err := entry.Validate(); err != nil {
		return pushup.Entry{}, classifyDomainError(err)
	}

	entry.UpdatedAt = s.now().UTC()
	if err := s.entries.Update(ctx, entry); err != nil {
		return pushup.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	return entry, nil
}

func (s *EntryService) DeleteEntry(ctx context.Context, actor pushup.Actor, entryID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.DeleteEntry", append(actorAttrs(actor), entryAttr(entryID))...)
	defer span.End()

	actor = normalizeActor(actor)
	entry, err := s.load(ctx, entryID, actor.Owns)
	if err != nil {
		return err
	}

	deleted, err := s.entries.Delete(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: entry=%s", ErrNotFound, entry.ID)
	}

	s.logger.DebugContext(ctx, "pushup entry deleted", "entry_id", entry.ID, "actor_id", actor.UserID, "elevated", actor.Elevated)
	return nil
}

func (s *EntryService) GetEntry(ctx context.Context, actor pushup.Actor, entryID string) (pushup.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.GetEntry", append(actorAttrs(actor), entryAttr(entryID))...)
	defer span.End()

	return s.loadOwned(ctx, normalizeActor(actor), entryID)
}

// ListHistory returns a user's entries, newest first, plus every year the user has logged in.
// Year and month filter independently; a month alone matches that month in every year.
func (s *EntryService) ListHistory(ctx context.Context, userID string, year, month int) (History, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.ListHistory", append(periodAttrs(year, month), userAttr(userID))...)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return History{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if year != 0 || month != 0 {
		checkYear, checkMonth := year, month
		if checkYear == 0 {
			checkYear = calendar.MinYear
		}
		if checkMonth == 0 {
			checkMonth = 1
		}
		if err := calendar.ValidateYearMonth(checkYear, checkMonth); err != nil {
			return History{}, classifyDomainError(err)
		}
	}

	entries, err := s.entries.ListByUser(ctx, userID, pushup.HistoryFilter{Year: year, Month: month})
	if err != nil {
		return History{}, fmt.Errorf("list entries: %w", err)
	}
	years, err := s.entries.ListYears(ctx, userID)
	if err != nil {
		return History{}, fmt.Errorf("list entry years: %w", err)
	}

	return History{Entries: entries, Years: years}, nil
}

func (s *EntryService) RecentEntries(ctx context.Context, userID string, limit int) ([]pushup.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntryService.RecentEntries", userAttr(userID))
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = defaultRecentEntries
	case limit > maxRecentEntries:
		limit = maxRecentEntries
	}

	entries, err := s.entries.ListByUser(ctx, userID, pushup.HistoryFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return entries, nil
}

// loadOwned hides entries the actor cannot access behind ErrNotFound.
func (s *EntryService) loadOwned(ctx context.Context, actor pushup.Actor, entryID string) (pushup.Entry, error) {
	return s.load(ctx, entryID, actor.CanAccess)
}

func (s *EntryService) load(ctx context.Context, entryID string, allowed func(ownerID string) bool) (pushup.Entry, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return pushup.Entry{}, fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	}

	entry, exists, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return pushup.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists || !allowed(entry.UserID) {
		return pushup.Entry{}, fmt.Errorf("%w: entry=%s", ErrNotFound, entryID)
	}
	return entry, nil
}

func normalizeActor(actor pushup.Actor) pushup.Actor {
	actor.UserID = strings.TrimSpace(actor.UserID)
	return actor
}
