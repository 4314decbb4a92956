package usecase

import (
	"errors"
	"fmt"

	"github.com/andrei73/pushup-counter/internal/domain/calendar"
	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/andrei73/pushup-counter/internal/domain/pushup"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("concurrent update conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// classifyDomainError maps domain validation sentinels onto usecase sentinels,
// keeping the original error in the chain.
func classifyDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pushup.ErrInvalidCount),
		errors.Is(err, pushup.ErrDateNotAllowed),
		errors.Is(err, pushup.ErrNoteTooLong),
		errors.Is(err, calendar.ErrInvalidMonth),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, competition.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, competition.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, competition.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
