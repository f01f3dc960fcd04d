package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/repository"
)

const (
	insertMembershipSQL = `INSERT INTO memberships (project_id, member, position, joined_at) SELECT id, $2, $3, $4 FROM projects WHERE id = $1 AND $3 < max_members`
	membershipColumns   = `project_id, member, position, joined_at, last_checkin_day, streak, checkins, last_proof_hash`
	getMembershipSQL    = `SELECT ` + membershipColumns + ` FROM memberships WHERE project_id = $1 AND member = $2`
	listByProjectSQL    = `SELECT ` + membershipColumns + ` FROM memberships WHERE project_id = $1 ORDER BY position`
	listByMemberSQL     = `SELECT project_id FROM memberships WHERE member = $1 ORDER BY joined_at, project_id LIMIT $2 OFFSET $3`
	memberKeyConstraint = "memberships_pkey"
)

// MembershipRepository implements membership.Repository for PostgreSQL.
type MembershipRepository struct {
	conn Conn
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(conn Conn) *MembershipRepository {
	return &MembershipRepository{conn: conn}
}

// Add inserts a membership if the project version still matches and the
// position is below the project's cap.
func (r *MembershipRepository) Add(ctx context.Context, m *membership.Membership, expectedVersion int64, entry *activity.ActivityEntry) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	version, err := bumpVersion(ctx, tx, m.ProjectID, expectedVersion)
	if err != nil {
		return rollback(ctx, tx, err)
	}

	tag, err := tx.Exec(ctx, insertMembershipSQL, int64(m.ProjectID), m.Member.Hex(), int32(m.Position), m.JoinedAt)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == memberKeyConstraint {
				return rollback(ctx, tx, repository.ErrDuplicate)
			}
			return rollback(ctx, tx, repository.ErrConflict)
		}
		return rollback(ctx, tx, fmt.Errorf("adding member: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return rollback(ctx, tx, repository.ErrCapacity)
	}

	entry.Tick = version
	if err := logActivity(ctx, tx, entry); err != nil {
		return rollback(ctx, tx, err)
	}
	return commit(ctx, tx)
}

// Get returns one membership.
func (r *MembershipRepository) Get(ctx context.Context, projectID uint64, member common.Address) (*membership.Membership, error) {
	m, err := scanMembership(r.conn.QueryRow(ctx, getMembershipSQL, int64(projectID), member.Hex()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting membership: %w", err)
	}
	return m, nil
}

// ListByMember returns project ids the member joined, oldest join first.
func (r *MembershipRepository) ListByMember(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error) {
	rows, err := r.conn.Query(ctx, listByMemberSQL, member.Hex(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing member projects: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scanning member projects: %w", err)
	}

	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	return out, nil
}

// ListByProject returns memberships in join order.
func (r *MembershipRepository) ListByProject(ctx context.Context, projectID uint64) ([]membership.Membership, error) {
	rows, err := r.conn.Query(ctx, listByProjectSQL, int64(projectID))
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	out := []membership.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memberships: %w", err)
	}
	return out, nil
}

func scanMembership(row pgx.Row) (*membership.Membership, error) {
	var (
		projectID, streak, checkins int64
		position                    int32
		member                      string
		joinedAt                    time.Time
		m                           membership.Membership
	)
	err := row.Scan(&projectID, &member, &position, &joinedAt, &m.LastCheckInDay, &streak, &checkins, &m.LastProofHash)
	if err != nil {
		return nil, err
	}
	m.ProjectID = uint64(projectID)
	m.Member = common.HexToAddress(member)
	m.Position = int(position)
	m.JoinedAt = joinedAt.UTC()
	m.Streak = uint32(streak)
	m.CheckIns = uint32(checkins)
	return &m, nil
}
