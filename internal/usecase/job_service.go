package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/domain/jobscheduler"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDispatchListLimit = 20
	maxDispatchListLimit     = 100
)

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type competitionMaintainer interface {
	EnsureMonthlyCompetitions(ctx context.Context, input EnsureCompetitionsInput) (EnsureCompetitionsResult, error)
	RefreshCompetitions(ctx context.Context) (RefreshCompetitionsResult, error)
}

type JobRun struct {
	// DispatchID overrides the generated per-minute dispatch id.
	DispatchID string
	Trigger    string
}

type RolloverResult struct {
	Ensure  EnsureCompetitionsResult  `json:"ensure"`
	Refresh RefreshCompetitionsResult `json:"refresh"`
}

// JobService runs the periodic competition maintenance triggered from outside and
// records every run as a dispatch event.
type JobService struct {
	clock
	competitions competitionMaintainer
	dispatchRepo jobscheduler.Repository
	logger       *logging.Logger
}

func NewJobService(
	competitions competitionMaintainer,
	dispatchRepo jobscheduler.Repository,
	location *time.Location,
	logger *logging.Logger,
) *JobService {
	if logger == nil {
		logger = logging.Default()
	}
	return &JobService{
		clock:        newClock(location),
		competitions: competitions,
		dispatchRepo: dispatchRepo,
		logger:       logger,
	}
}

func (s *JobService) RunEnsure(ctx context.Context, run JobRun, input EnsureCompetitionsInput) (EnsureCompetitionsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunEnsure", jobAttrs(jobscheduler.JobEnsureCompetitions, run)...)
	defer span.End()

	payload := map[string]any{"year": input.Year, "month": input.Month, "months": input.Months}
	var result EnsureCompetitionsResult
	err := s.track(ctx, jobscheduler.JobEnsureCompetitions, run, payload, func(ctx context.Context) (any, error) {
		var err error
		result, err = s.competitions.EnsureMonthlyCompetitions(ctx, input)
		return result, err
	})
	return result, err
}

func (s *JobService) RunRefresh(ctx context.Context, run JobRun) (RefreshCompetitionsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunRefresh", jobAttrs(jobscheduler.JobRefreshCompetitions, run)...)
	defer span.End()

	var result RefreshCompetitionsResult
	err := s.track(ctx, jobscheduler.JobRefreshCompetitions, run, nil, func(ctx context.Context) (any, error) {
		var err error
		result, err = s.competitions.RefreshCompetitions(ctx)
		return result, err
	})
	return result, err
}

// RunRollover makes sure this month and the next exist, then refreshes everything still open.
func (s *JobService) RunRollover(ctx context.Context, run JobRun) (RolloverResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunRollover", jobAttrs(jobscheduler.JobRolloverCompetitions, run)...)
	defer span.End()

	year, month := s.currentMonth()
	payload := map[string]any{"year": year, "month": month, "months": 2}

	var result RolloverResult
	err := s.track(ctx, jobscheduler.JobRolloverCompetitions, run, payload, func(ctx context.Context) (any, error) {
		ensured, err := s.competitions.EnsureMonthlyCompetitions(ctx, EnsureCompetitionsInput{Year: year, Month: month, Months: 2})
		if err != nil {
			return nil, err
		}
		result.Ensure = ensured

		refreshed, err := s.competitions.RefreshCompetitions(ctx)
		if err != nil {
			return nil, err
		}
		result.Refresh = refreshed
		return result, nil
	})
	return result, err
}

// ListDispatches returns the latest recorded job runs, optionally for one job only.
func (s *JobService) ListDispatches(ctx context.Context, jobName string, limit int) ([]jobscheduler.DispatchEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.ListDispatches")
	defer span.End()

	jobName = strings.TrimSpace(jobName)
	if jobName != "" && !jobscheduler.KnownJob(jobName) {
		return nil, fmt.Errorf("%w: unknown job %q", ErrInvalidInput, jobName)
	}
	switch {
	case limit <= 0:
		limit = defaultDispatchListLimit
	case limit > maxDispatchListLimit:
		limit = maxDispatchListLimit
	}
	if s.dispatchRepo == nil {
		return []jobscheduler.DispatchEvent{}, nil
	}

	events, err := s.dispatchRepo.ListRecent(ctx, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("list job dispatches: %w", err)
	}
	return events, nil
}

func (s *JobService) track(
	ctx context.Context,
	jobName string,
	run JobRun,
	payload map[string]any,
	fn func(ctx context.Context) (any, error),
) error {
	now := s.now().UTC()
	trigger := strings.TrimSpace(run.Trigger)
	if trigger == "" {
		trigger = "manual"
	}
	dispatchID := strings.TrimSpace(run.DispatchID)
	if dispatchID == "" {
		dispatchID = dedupKey(jobName, trigger, now, time.Minute)
	}

	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobName,
		Trigger:    trigger,
		Status:     jobscheduler.StatusRunning,
		Payload:    payload,
		OccurredAt: now,
	}
	s.recordDispatchEvent(ctx, event)

	started := time.Now()
	out, err := fn(ctx)
	event.OccurredAt = s.now().UTC()
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		s.logger.WarnContext(ctx, "competition job failed", "job", jobName, "dispatch_id", dispatchID, "error", err)
		return err
	}

	event.Status = jobscheduler.StatusCompleted
	event.Result = toResultMap(out)
	s.recordDispatchEvent(ctx, event)
	s.logger.InfoContext(ctx, "competition job completed",
		"job", jobName,
		"dispatch_id", dispatchID,
		"duration", time.Since(started),
	)
	return nil
}

func (s *JobService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"job", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

// toResultMap flattens a job result into the JSON object stored with the dispatch event.
func toResultMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	out := make(map[string]any)
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

func dedupKey(prefix, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + sanitizeDedupSegment(scope) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
