package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every input validation failure of the service.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a task or segment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSegmentNotFound additionally marks a missing segment.
	ErrSegmentNotFound = errors.New("segment not found")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func taskNotFound(id string) error {
	return fmt.Errorf("task %s: %w", id, ErrNotFound)
}

type segmentNotFoundError struct {
	id int64
}

func (e *segmentNotFoundError) Error() string { return fmt.Sprintf("segment %d: not found", e.id) }

func (e *segmentNotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrSegmentNotFound
}

func segmentNotFound(id int64) error {
	return &segmentNotFoundError{id: id}
}
