package sqlite

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/repository"
)

// CheckInRepository implements checkin.Repository for SQLite
type CheckInRepository struct {
	db *DB
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(db *DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

type checkInRow struct {
	ProjectID  int64  `db:"project_id"`
	Member     string `db:"member"`
	ProofHash  string `db:"proof_hash"`
	Timestamp  int64  `db:"timestamp"`
	Day        int64  `db:"day"`
	Signature  []byte `db:"signature"`
	Streak     int64  `db:"streak"`
	RecordedAt int64  `db:"recorded_at"`
}

// Record stores a check-in and advances the member's streak
func (r *CheckInRepository) Record(ctx context.Context, c *checkin.CheckIn, expectedVersion int64, entry *activity.ActivityEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := bumpVersion(ctx, tx, c.ProjectID, expectedVersion)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE memberships
		SET last_checkin_day = ?, streak = ?, checkins = checkins + 1, last_proof_hash = ?
		WHERE project_id = ? AND member = ?`,
		c.Day, int64(c.Streak), c.ProofHash, int64(c.ProjectID), c.Member.Hex(),
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkins (project_id, member, proof_hash, timestamp, day, signature, streak, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(c.ProjectID), c.Member.Hex(), c.ProofHash, c.Timestamp, c.Day, c.Signature, int64(c.Streak), toNanos(c.RecordedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert check-in: %w", err)
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

// List returns a member's check-ins, most recent day first
func (r *CheckInRepository) List(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]checkin.CheckIn, error) {
	var rows []checkInRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT project_id, member, proof_hash, timestamp, day, signature, streak, recorded_at
		FROM checkins
		WHERE project_id = ? AND member = ?
		ORDER BY day DESC
		LIMIT ? OFFSET ?`,
		int64(projectID), member.Hex(), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}

	out := make([]checkin.CheckIn, 0, len(rows))
	for _, row := range rows {
		out = append(out, checkin.CheckIn{
			ProjectID:  uint64(row.ProjectID),
			Member:     common.HexToAddress(row.Member),
			ProofHash:  row.ProofHash,
			Timestamp:  row.Timestamp,
			Day:        row.Day,
			Signature:  row.Signature,
			Streak:     uint32(row.Streak),
			RecordedAt: fromNanos(row.RecordedAt),
		})
	}
	return out, nil
}
