package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andrei73/pushup-counter/internal/domain/pushup"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/andrei73/pushup-counter/internal/usecase"
	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	entryService       *usecase.EntryService
	statsService       *usecase.StatsService
	competitionService *usecase.CompetitionService
	dashboardService   *usecase.DashboardService
	jobService         *usecase.JobService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	entryService *usecase.EntryService,
	statsService *usecase.StatsService,
	competitionService *usecase.CompetitionService,
	dashboardService *usecase.DashboardService,
	jobService *usecase.JobService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		entryService:       entryService,
		statsService:       statsService,
		competitionService: competitionService,
		dashboardService:   dashboardService,
		jobService:         jobService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSONBody rejects unknown fields. An empty body leaves dst untouched when allowEmpty is set.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func requireActor(ctx context.Context) (pushup.Actor, error) {
	actor, ok := actorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return pushup.Actor{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return actor, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return v, nil
}

func pathInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return v, nil
}

// queryYearMonth falls back to the current month when neither is given; a lone value is an error.
func (h *Handler) queryYearMonth(r *http.Request) (int, int, error) {
	year, err := queryInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	switch {
	case year == 0 && month == 0:
		year, month = h.statsService.CurrentMonth()
	case year == 0 || month == 0:
		return 0, 0, fmt.Errorf("%w: year and month must be given together", usecase.ErrInvalidInput)
	}
	return year, month, nil
}
