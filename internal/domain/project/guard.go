package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/cotime/internal/keylock"
	"github.com/rpggio/cotime/internal/repository"
)

// DefaultMaxAttempts bounds optimistic retries when none is configured.
const DefaultMaxAttempts = 3

// Guard serializes mutations per project. In-process callers queue on a keyed
// mutex; writers in other processes are caught by the repository version check,
// which the guard retries a bounded number of times.
type Guard struct {
	locks       *keylock.Map[uint64]
	maxAttempts int
	logger      *slog.Logger
}

// NewGuard creates a guard. maxAttempts below 1 falls back to DefaultMaxAttempts.
func NewGuard(maxAttempts int, logger *slog.Logger) *Guard {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{locks: keylock.New[uint64](), maxAttempts: maxAttempts, logger: logger}
}

// Do runs fn while holding the project's lock. fn must re-read state on every
// call; it is invoked again when it returns repository.ErrConflict.
func (g *Guard) Do(ctx context.Context, projectID uint64, fn func(ctx context.Context) error) error {
	unlock, err := g.locks.Lock(ctx, projectID)
	if err != nil {
		return fmt.Errorf("waiting for project %d: %w", projectID, err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		if attempt >= g.maxAttempts {
			g.logger.WarnContext(ctx, "giving up on conflicting mutation", "project_id", projectID, "attempts", attempt)
			return &ConflictError{ProjectID: projectID, Attempts: attempt}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		g.logger.WarnContext(ctx, "version conflict, retrying", "project_id", projectID, "attempt", attempt)
	}
}
