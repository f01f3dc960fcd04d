package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/cotime/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityRow struct {
	Seq          int64  `db:"seq"`
	ID           string `db:"id"`
	ProjectID    int64  `db:"project_id"`
	Member       string `db:"member"`
	ActivityType string `db:"activity_type"`
	Summary      string `db:"summary"`
	Details      string `db:"details"`
	CreatedAt    int64  `db:"created_at"`
	Tick         int64  `db:"tick"`
}

// List returns activity entries matching the given filters, oldest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT seq, id, project_id, member, activity_type, summary, details, created_at, tick
		FROM activity_log
		WHERE seq > ?
	`
	args := []interface{}{opts.AfterSeq}
	conditions := []string{}

	if opts.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, int64(*opts.ProjectID))
	}
	if opts.Member != nil {
		conditions = append(conditions, "member = ?")
		args = append(args, *opts.Member)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	entries := make([]activity.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, activity.ActivityEntry{
			ID:           row.ID,
			Seq:          row.Seq,
			ProjectID:    uint64(row.ProjectID),
			Member:       row.Member,
			ActivityType: activity.ActivityType(row.ActivityType),
			Summary:      row.Summary,
			Details:      row.Details,
			CreatedAt:    fromNanos(row.CreatedAt),
			Tick:         row.Tick,
		})
	}
	return entries, nil
}
