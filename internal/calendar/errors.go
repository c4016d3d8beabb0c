package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrSyncDisabled = errors.New("calendar sync is disabled")
	ErrMissingTitle = errors.New("title is required for a calendar block")
	ErrInvalidRange = errors.New("invalid time range: start and end must be set and end must be after start")
)

// BackendError wraps a failure reported by the calendar backend.
type BackendError struct {
	Op      string
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("calendar %s via %s: %v", e.Op, e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// UserMessage maps an error to a stable message for display. The text
// does not depend on the backend mechanism.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		return err.Error()
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		return "Calendar is not available. Check the calendar backend configuration."
	case errors.Is(err, ErrNotFound):
		return "Calendar entry not found."
	case errors.Is(err, ErrPermission):
		return "Access to the calendar was denied."
	case errors.Is(err, context.DeadlineExceeded):
		return "Calendar did not respond in time."
	case errors.Is(err, ErrWorkerClosed), errors.Is(err, context.Canceled):
		return "Calendar request was cancelled."
	default:
		return "Calendar request failed: " + backendErr.Err.Error()
	}
}

// causeChain lists the messages of err and every error it wraps.
func causeChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

func logFailure(logger *slog.Logger, err *BackendError, available bool, start, end time.Time, elapsed time.Duration) {
	attrs := []any{
		"op", err.Op,
		"backend", err.Backend,
		"available", available,
		"duration", elapsed,
		"error", err.Err,
		"causes", causeChain(err.Err),
	}
	if !start.IsZero() {
		attrs = append(attrs, "start", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		attrs = append(attrs, "end", end.Format(time.RFC3339))
	}
	logger.Error("calendar call failed", attrs...)
}
