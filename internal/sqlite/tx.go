package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/repository"
)

// bumpVersion advances a project's version if it still equals expected.
// It returns the new version.
func bumpVersion(ctx context.Context, tx *sqlx.Tx, projectID uint64, expected int64) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE projects SET version = version + 1 WHERE id = ? AND version = ?`,
		int64(projectID), expected,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bump project version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return expected + 1, nil
	}

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM projects WHERE id = ?`, int64(projectID)); err != nil {
		return 0, fmt.Errorf("failed to check project: %w", err)
	}
	if exists == 0 {
		return 0, repository.ErrNotFound
	}
	return 0, repository.ErrConflict
}

// logActivity appends entry and fills its Seq.
func logActivity(ctx context.Context, tx *sqlx.Tx, entry *activity.ActivityEntry) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO activity_log (id, project_id, member, activity_type, summary, details, created_at, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		int64(entry.ProjectID),
		entry.Member,
		string(entry.ActivityType),
		entry.Summary,
		entry.Details,
		toNanos(entry.CreatedAt),
		entry.Tick,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity seq: %w", err)
	}
	entry.Seq = seq
	return nil
}
