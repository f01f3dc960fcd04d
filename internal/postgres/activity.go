package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/cotime/internal/domain/activity"
)

// logActivity appends entry inside tx and fills its Seq.
func logActivity(ctx context.Context, tx pgx.Tx, entry *activity.ActivityEntry) error {
	err := tx.QueryRow(ctx, insertEntrySQL,
		entry.ID,
		int64(entry.ProjectID),
		entry.Member,
		string(entry.ActivityType),
		entry.Summary,
		entry.Details,
		entry.CreatedAt,
		entry.Tick,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	conn Conn
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn Conn) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// List returns entries matching opts, oldest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := []any{opts.AfterSeq}
	where := []string{"seq > $1"}

	if opts.ProjectID != nil {
		args = append(args, int64(*opts.ProjectID))
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if opts.Member != nil {
		args = append(args, *opts.Member)
		where = append(where, fmt.Sprintf("member = $%d", len(args)))
	}
	if opts.ActivityType != nil {
		args = append(args, string(*opts.ActivityType))
		where = append(where, fmt.Sprintf("activity_type = $%d", len(args)))
	}

	query := `SELECT seq, id, project_id, member, activity_type, summary, details, created_at, tick FROM activity_log WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY seq`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var (
			e         activity.ActivityEntry
			projectID int64
			typ       string
			createdAt time.Time
		)
		if err := rows.Scan(&e.Seq, &e.ID, &projectID, &e.Member, &typ, &e.Summary, &e.Details, &createdAt, &e.Tick); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		e.ProjectID = uint64(projectID)
		e.ActivityType = activity.ActivityType(typ)
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return entries, nil
}
