package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/repository"
)

// CheckInRepository implements checkin.Repository in memory.
type CheckInRepository struct {
	store *Store
}

// NewCheckInRepository creates a new CheckInRepository.
func NewCheckInRepository(store *Store) *CheckInRepository {
	return &CheckInRepository{store: store}
}

// Record stores a check-in and advances the member's streak.
func (r *CheckInRepository) Record(_ context.Context, c *checkin.CheckIn, expectedVersion int64, entry *activity.ActivityEntry) error {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	proj, err := bumpVersion(txn, c.ProjectID, expectedVersion)
	if err != nil {
		return err
	}

	member := c.Member.Hex()
	raw, err := txn.First(tableMemberships, indexID, c.ProjectID, member)
	if err != nil {
		return fmt.Errorf("reading membership: %w", err)
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	dup, err := txn.First(tableCheckIns, indexID, c.ProjectID, member, c.Day)
	if err != nil {
		return fmt.Errorf("reading check-in: %w", err)
	}
	if dup != nil {
		return repository.ErrDuplicate
	}

	updated := *raw.(*membershipRecord)
	day := c.Day
	updated.LastCheckInDay = &day
	updated.Streak = c.Streak
	updated.CheckIns++
	updated.LastProofHash = c.ProofHash
	if err := txn.Insert(tableMemberships, &updated); err != nil {
		return fmt.Errorf("updating membership: %w", err)
	}

	rec := &checkInRecord{
		ProjectID:  c.ProjectID,
		Member:     member,
		ProofHash:  c.ProofHash,
		Timestamp:  c.Timestamp,
		Day:        c.Day,
		Signature:  append([]byte(nil), c.Signature...),
		Streak:     c.Streak,
		RecordedAt: c.RecordedAt,
	}
	if err := txn.Insert(tableCheckIns, rec); err != nil {
		return fmt.Errorf("inserting check-in: %w", err)
	}

	entry.Tick = proj.Version
	if err := logActivity(txn, entry); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// List returns a member's check-ins, most recent day first.
func (r *CheckInRepository) List(_ context.Context, projectID uint64, member common.Address, offset, limit int) ([]checkin.CheckIn, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableCheckIns, indexMembership, projectID, member.Hex())
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	var recs []*checkInRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		recs = append(recs, raw.(*checkInRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Day > recs[j].Day })

	out := []checkin.CheckIn{}
	for _, rec := range page(recs, offset, limit) {
		out = append(out, checkin.CheckIn{
			ProjectID:  rec.ProjectID,
			Member:     common.HexToAddress(rec.Member),
			ProofHash:  rec.ProofHash,
			Timestamp:  rec.Timestamp,
			Day:        rec.Day,
			Signature:  append([]byte(nil), rec.Signature...),
			Streak:     rec.Streak,
			RecordedAt: rec.RecordedAt,
		})
	}
	return out, nil
}
