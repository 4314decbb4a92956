package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andrei73/pushup-counter/internal/domain/competition"
	"github.com/bytedance/sonic"
	"github.com/lib/pq"
)

// SQLSTATE codes raised when a row lock cannot be taken or a transaction has to be retried.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// mapLockError tags lock contention with competition.ErrConflict and leaves other errors alone.
func mapLockError(err error) error {
	if !isLockConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", competition.ErrConflict, err)
}

func isLockConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	}
	return false
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullableInt64(value int64) *int64 {
	if value <= 0 {
		return nil
	}
	v := value
	return &v
}

func encodeJSONMap(value map[string]any) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeJSONMap(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}
	}
	return out
}
