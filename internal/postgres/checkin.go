package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/repository"
)

const (
	advanceStreakSQL = `UPDATE memberships SET last_checkin_day = $3, streak = $4, checkins = checkins + 1, last_proof_hash = $5 WHERE project_id = $1 AND member = $2`
	insertCheckInSQL = `INSERT INTO checkins (project_id, member, proof_hash, timestamp_unix, day, signature, streak, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	listCheckInsSQL  = `SELECT project_id, member, proof_hash, timestamp_unix, day, signature, streak, recorded_at FROM checkins WHERE project_id = $1 AND member = $2 ORDER BY day DESC LIMIT $3 OFFSET $4`
)

// CheckInRepository implements checkin.Repository for PostgreSQL.
type CheckInRepository struct {
	conn Conn
}

// NewCheckInRepository creates a new CheckInRepository.
func NewCheckInRepository(conn Conn) *CheckInRepository {
	return &CheckInRepository{conn: conn}
}

// Record stores a check-in and advances the member's streak.
func (r *CheckInRepository) Record(ctx context.Context, c *checkin.CheckIn, expectedVersion int64, entry *activity.ActivityEntry) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	version, err := bumpVersion(ctx, tx, c.ProjectID, expectedVersion)
	if err != nil {
		return rollback(ctx, tx, err)
	}

	member := c.Member.Hex()
	tag, err := tx.Exec(ctx, advanceStreakSQL, int64(c.ProjectID), member, c.Day, int64(c.Streak), c.ProofHash)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("updating membership: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return rollback(ctx, tx, repository.ErrNotFound)
	}

	_, err = tx.Exec(ctx, insertCheckInSQL,
		int64(c.ProjectID), member, c.ProofHash, c.Timestamp, c.Day, c.Signature, int64(c.Streak), c.RecordedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return rollback(ctx, tx, repository.ErrDuplicate)
		}
		return rollback(ctx, tx, fmt.Errorf("inserting check-in: %w", err))
	}

	entry.Tick = version
	if err := logActivity(ctx, tx, entry); err != nil {
		return rollback(ctx, tx, err)
	}
	return commit(ctx, tx)
}

// List returns a member's check-ins, most recent day first.
func (r *CheckInRepository) List(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]checkin.CheckIn, error) {
	rows, err := r.conn.Query(ctx, listCheckInsSQL, int64(projectID), member.Hex(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	defer rows.Close()

	out := []checkin.CheckIn{}
	for rows.Next() {
		var (
			c          checkin.CheckIn
			pid, st    int64
			addr       string
			recordedAt time.Time
		)
		if err := rows.Scan(&pid, &addr, &c.ProofHash, &c.Timestamp, &c.Day, &c.Signature, &st, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning check-in: %w", err)
		}
		c.ProjectID = uint64(pid)
		c.Member = common.HexToAddress(addr)
		c.Streak = uint32(st)
		c.RecordedAt = recordedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating check-ins: %w", err)
	}
	return out, nil
}
