package project

import (
	"context"
	"time"

	"github.com/rpggio/cotime/internal/domain/activity"
)

// Repository provides persistence for projects.
//
// Create assigns the next sequential id, sets Version to 1 and fills the entry's
// ProjectID, Seq and Tick. MarkFinished returns repository.ErrConflict when the
// stored version differs from expectedVersion.
type Repository interface {
	Create(ctx context.Context, proj *Project, entry *activity.ActivityEntry) error
	Get(ctx context.Context, id uint64) (*Project, error)
	List(ctx context.Context, offset, limit int) ([]Project, error)
	Count(ctx context.Context) (uint64, error)
	MarkFinished(ctx context.Context, id uint64, expectedVersion int64, finishedAt time.Time, entry *activity.ActivityEntry) error
}

// Publisher receives entries after their mutation committed.
type Publisher interface {
	Publish(ctx context.Context, entry activity.ActivityEntry)
}
