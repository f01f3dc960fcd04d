package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
)

const (
	allocateProjectIDSQL = `UPDATE counters SET value = value + 1 WHERE name = 'project_id' RETURNING value - 1`
	insertProjectSQL     = `INSERT INTO projects (id, name, theme, initiator, total_streak_days, max_members, created_at, version) VALUES ($1, $2, $3, $4, $5, $6, $7, 1)`
	selectProjectSQL     = `SELECT p.id, p.name, p.theme, p.initiator, p.total_streak_days, p.max_members, p.finished, p.created_at, p.finished_at, p.version, COALESCE(array_agg(m.member ORDER BY m.position) FILTER (WHERE m.member IS NOT NULL), '{}') FROM projects p LEFT JOIN memberships m ON m.project_id = p.id`
	getProjectSQL        = selectProjectSQL + ` WHERE p.id = $1 GROUP BY p.id`
	listProjectsSQL      = selectProjectSQL + ` GROUP BY p.id ORDER BY p.id LIMIT $1 OFFSET $2`
	countProjectsSQL     = `SELECT COUNT(*) FROM projects`
	finishProjectSQL     = `UPDATE projects SET finished = TRUE, finished_at = $2 WHERE id = $1`
)

// ProjectRepository implements project.Repository for PostgreSQL.
type ProjectRepository struct {
	conn Conn
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(conn Conn) *ProjectRepository {
	return &ProjectRepository{conn: conn}
}

// Create allocates the next id and inserts the project with its entry.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project, entry *activity.ActivityEntry) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	var id int64
	if err := tx.QueryRow(ctx, allocateProjectIDSQL).Scan(&id); err != nil {
		return rollback(ctx, tx, fmt.Errorf("allocating project id: %w", err))
	}

	_, err = tx.Exec(ctx, insertProjectSQL,
		id,
		proj.Name,
		proj.Theme,
		proj.Initiator.Hex(),
		int32(proj.TotalStreakDays),
		int32(proj.MaxMembers),
		proj.CreatedAt,
	)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("inserting project: %w", err))
	}

	if err := entry.AssignProject(uint64(id)); err != nil {
		return rollback(ctx, tx, err)
	}
	entry.Tick = 1
	if err := logActivity(ctx, tx, entry); err != nil {
		return rollback(ctx, tx, err)
	}
	if err := commit(ctx, tx); err != nil {
		return err
	}

	proj.ID = uint64(id)
	proj.Version = 1
	return nil
}

// Get returns a project with its members in join order.
func (r *ProjectRepository) Get(ctx context.Context, id uint64) (*project.Project, error) {
	proj, err := scanProject(r.conn.QueryRow(ctx, getProjectSQL, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns projects in id order.
func (r *ProjectRepository) List(ctx context.Context, offset, limit int) ([]project.Project, error) {
	rows, err := r.conn.Query(ctx, listProjectsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// Count returns the number of projects.
func (r *ProjectRepository) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := r.conn.QueryRow(ctx, countProjectsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return uint64(n), nil
}

// MarkFinished flags the project finished if its version still matches.
func (r *ProjectRepository) MarkFinished(ctx context.Context, id uint64, expectedVersion int64, finishedAt time.Time, entry *activity.ActivityEntry) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	version, err := bumpVersion(ctx, tx, id, expectedVersion)
	if err != nil {
		return rollback(ctx, tx, err)
	}
	if _, err := tx.Exec(ctx, finishProjectSQL, int64(id), finishedAt); err != nil {
		return rollback(ctx, tx, fmt.Errorf("finishing project: %w", err))
	}

	entry.Tick = version
	if err := logActivity(ctx, tx, entry); err != nil {
		return rollback(ctx, tx, err)
	}
	return commit(ctx, tx)
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		id, version      int64
		days, maxMembers int32
		initiator        string
		createdAt        time.Time
		finishedAt       *time.Time
		members          []string
		proj             project.Project
	)
	err := row.Scan(&id, &proj.Name, &proj.Theme, &initiator, &days, &maxMembers,
		&proj.Finished, &createdAt, &finishedAt, &version, &members)
	if err != nil {
		return nil, err
	}

	proj.ID = uint64(id)
	proj.Initiator = common.HexToAddress(initiator)
	proj.TotalStreakDays = uint16(days)
	proj.MaxMembers = uint8(maxMembers)
	proj.CreatedAt = createdAt.UTC()
	proj.Version = version
	if finishedAt != nil {
		at := finishedAt.UTC()
		proj.FinishedAt = &at
	}
	proj.Members = make([]common.Address, 0, len(members))
	for _, m := range members {
		proj.Members = append(proj.Members, common.HexToAddress(m))
	}
	return &proj, nil
}
