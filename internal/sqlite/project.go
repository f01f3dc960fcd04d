package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type projectRow struct {
	ID              int64         `db:"id"`
	Name            string        `db:"name"`
	Theme           string        `db:"theme"`
	Initiator       string        `db:"initiator"`
	TotalStreakDays int64         `db:"total_streak_days"`
	MaxMembers      int64         `db:"max_members"`
	Finished        bool          `db:"finished"`
	CreatedAt       int64         `db:"created_at"`
	FinishedAt      sql.NullInt64 `db:"finished_at"`
	Version         int64         `db:"version"`
}

func (r projectRow) toProject() *project.Project {
	proj := &project.Project{
		ID:              uint64(r.ID),
		Name:            r.Name,
		Theme:           r.Theme,
		Initiator:       common.HexToAddress(r.Initiator),
		TotalStreakDays: uint16(r.TotalStreakDays),
		MaxMembers:      uint8(r.MaxMembers),
		Members:         []common.Address{},
		Finished:        r.Finished,
		CreatedAt:       fromNanos(r.CreatedAt),
		Version:         r.Version,
	}
	if r.FinishedAt.Valid {
		at := fromNanos(r.FinishedAt.Int64)
		proj.FinishedAt = &at
	}
	return proj
}

const selectProjectColumns = `
	SELECT id, name, theme, initiator, total_streak_days, max_members,
	       finished, created_at, finished_at, version
	FROM projects`

// Create allocates the next project id and inserts the project with its entry.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project, entry *activity.ActivityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.GetContext(ctx, &id,
		`UPDATE counters SET value = value + 1 WHERE name = 'project_id' RETURNING value - 1`)
	if err != nil {
		return fmt.Errorf("failed to allocate project id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, theme, initiator, total_streak_days, max_members, finished, created_at, version)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, 1)`,
		id,
		proj.Name,
		proj.Theme,
		proj.Initiator.Hex(),
		int64(proj.TotalStreakDays),
		int64(proj.MaxMembers),
		toNanos(proj.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := entry.AssignProject(uint64(id)); err != nil {
		return err
	}
	entry.Tick = 1
	if err := logActivity(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	proj.ID = uint64(id)
	proj.Version = 1
	return nil
}

// Get retrieves a project with its members in join order
func (r *ProjectRepository) Get(ctx context.Context, id uint64) (*project.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row projectRow
	err = tx.GetContext(ctx, &row, selectProjectColumns+` WHERE id = ?`, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	proj := row.toProject()
	members, err := loadMembers(ctx, tx, []int64{row.ID})
	if err != nil {
		return nil, err
	}
	if list, ok := members[row.ID]; ok {
		proj.Members = list
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return proj, nil
}

// List returns projects in id order
func (r *ProjectRepository) List(ctx context.Context, offset, limit int) ([]project.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []projectRow
	if err := tx.SelectContext(ctx, &rows, selectProjectColumns+` ORDER BY id ASC LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if len(rows) == 0 {
		return []project.Project{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	members, err := loadMembers(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		proj := row.toProject()
		if list, ok := members[row.ID]; ok {
			proj.Members = list
		}
		projects = append(projects, *proj)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return projects, nil
}

// Count returns the number of projects
func (r *ProjectRepository) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM projects`); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return uint64(n), nil
}

// MarkFinished flags a project finished if its version still matches
func (r *ProjectRepository) MarkFinished(ctx context.Context, id uint64, expectedVersion int64, finishedAt time.Time, entry *activity.ActivityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := bumpVersion(ctx, tx, id, expectedVersion)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET finished = 1, finished_at = ? WHERE id = ?`,
		toNanos(finishedAt), int64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to finish project: %w", err)
	}

	entry.Tick = version
	if err := logActivity(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func loadMembers(ctx context.Context, tx *sqlx.Tx, projectIDs []int64) (map[int64][]common.Address, error) {
	query, args, err := sqlx.In(
		`SELECT project_id, member FROM memberships WHERE project_id IN (?) ORDER BY project_id, position`,
		projectIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build member query: %w", err)
	}

	var rows []struct {
		ProjectID int64  `db:"project_id"`
		Member    string `db:"member"`
	}
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}

	members := make(map[int64][]common.Address, len(projectIDs))
	for _, row := range rows {
		members[row.ProjectID] = append(members[row.ProjectID], common.HexToAddress(row.Member))
	}
	return members, nil
}
