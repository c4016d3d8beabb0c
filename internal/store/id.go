package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const idMaxAttempts = 5

var errIDExhausted = errors.New("unable to generate unique task id")

// GenerateTaskID returns a random UUID not yet used by a task. A nil
// exists skips the collision check.
func GenerateTaskID(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < idMaxAttempts; attempt++ {
		id := uuid.NewString()
		if exists == nil {
			return id, nil
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errIDExhausted
}
