package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/repository"
)

// MembershipRepository implements membership.Repository for SQLite
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

type membershipRow struct {
	ProjectID      int64         `db:"project_id"`
	Member         string        `db:"member"`
	Position       int           `db:"position"`
	JoinedAt       int64         `db:"joined_at"`
	LastCheckInDay sql.NullInt64 `db:"last_checkin_day"`
	Streak         int64         `db:"streak"`
	CheckIns       int64         `db:"checkins"`
	LastProofHash  string        `db:"last_proof_hash"`
}

func (r membershipRow) toMembership() membership.Membership {
	m := membership.Membership{
		ProjectID:     uint64(r.ProjectID),
		Member:        common.HexToAddress(r.Member),
		Position:      r.Position,
		JoinedAt:      fromNanos(r.JoinedAt),
		Streak:        uint32(r.Streak),
		CheckIns:      uint32(r.CheckIns),
		LastProofHash: r.LastProofHash,
	}
	if r.LastCheckInDay.Valid {
		day := r.LastCheckInDay.Int64
		m.LastCheckInDay = &day
	}
	return m
}

const selectMembershipColumns = `
	SELECT project_id, member, position, joined_at, last_checkin_day, streak, checkins, last_proof_hash
	FROM memberships`

// Add inserts a membership if the project version still matches and the
// position is below the project's cap
func (r *MembershipRepository) Add(ctx context.Context, m *membership.Membership, expectedVersion int64, entry *activity.ActivityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := bumpVersion(ctx, tx, m.ProjectID, expectedVersion)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (project_id, member, position, joined_at)
		SELECT id, ?, ?, ? FROM projects WHERE id = ? AND ? < max_members`,
		m.Member.Hex(),
		m.Position,
		toNanos(m.JoinedAt),
		int64(m.ProjectID),
		m.Position,
	)
	if err != nil {
		if isMemberKeyViolation(err) {
			return repository.ErrDuplicate
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrCapacity
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

// Get retrieves one membership
func (r *MembershipRepository) Get(ctx context.Context, projectID uint64, member common.Address) (*membership.Membership, error) {
	var row membershipRow
	err := r.db.GetContext(ctx, &row, selectMembershipColumns+` WHERE project_id = ? AND member = ?`,
		int64(projectID), member.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	m := row.toMembership()
	return &m, nil
}

// ListByMember returns project ids the member joined, oldest join first
func (r *MembershipRepository) ListByMember(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT project_id FROM memberships
		WHERE member = ?
		ORDER BY joined_at ASC, project_id ASC
		LIMIT ? OFFSET ?`,
		member.Hex(), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member projects: %w", err)
	}

	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	return out, nil
}

// ListByProject returns memberships in join order
func (r *MembershipRepository) ListByProject(ctx context.Context, projectID uint64) ([]membership.Membership, error) {
	var rows []membershipRow
	if err := r.db.SelectContext(ctx, &rows, selectMembershipColumns+` WHERE project_id = ? ORDER BY position`, int64(projectID)); err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	out := make([]membership.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toMembership())
	}
	return out, nil
}
