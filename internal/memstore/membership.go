package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-memdb"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/repository"
)

// MembershipRepository implements membership.Repository in memory.
type MembershipRepository struct {
	store *Store
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(store *Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

// Add stores a membership if the project version still matches.
func (r *MembershipRepository) Add(_ context.Context, m *membership.Membership, expectedVersion int64, entry *activity.ActivityEntry) error {
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	proj, err := bumpVersion(txn, m.ProjectID, expectedVersion)
	if err != nil {
		return err
	}

	member := m.Member.Hex()
	existing, err := txn.First(tableMemberships, indexID, m.ProjectID, member)
	if err != nil {
		return fmt.Errorf("reading membership: %w", err)
	}
	if existing != nil {
		return repository.ErrDuplicate
	}
	if m.Position < 0 || m.Position >= int(proj.MaxMembers) {
		return repository.ErrCapacity
	}
	taken, err := txn.First(tableMemberships, indexPosition, m.ProjectID, m.Position)
	if err != nil {
		return fmt.Errorf("reading membership position: %w", err)
	}
	if taken != nil {
		return repository.ErrConflict
	}

	rec := &membershipRecord{
		ProjectID: m.ProjectID,
		Member:    member,
		Position:  m.Position,
		JoinedAt:  m.JoinedAt,
	}
	if err := txn.Insert(tableMemberships, rec); err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}

	entry.Tick = proj.Version
	if err := logActivity(txn, entry); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Get returns one membership.
func (r *MembershipRepository) Get(_ context.Context, projectID uint64, member common.Address) (*membership.Membership, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableMemberships, indexID, projectID, member.Hex())
	if err != nil {
		return nil, fmt.Errorf("reading membership: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	m := toMembership(raw.(*membershipRecord))
	return &m, nil
}

// ListByMember returns project ids the member joined, oldest join first.
func (r *MembershipRepository) ListByMember(_ context.Context, member common.Address, offset, limit int) ([]uint64, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableMemberships, indexMember, member.Hex())
	if err != nil {
		return nil, fmt.Errorf("listing member projects: %w", err)
	}
	var recs []*membershipRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		recs = append(recs, raw.(*membershipRecord))
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].JoinedAt.Equal(recs[j].JoinedAt) {
			return recs[i].JoinedAt.Before(recs[j].JoinedAt)
		}
		return recs[i].ProjectID < recs[j].ProjectID
	})

	ids := []uint64{}
	for _, rec := range page(recs, offset, limit) {
		ids = append(ids, rec.ProjectID)
	}
	return ids, nil
}

// ListByProject returns memberships in join order.
func (r *MembershipRepository) ListByProject(_ context.Context, projectID uint64) ([]membership.Membership, error) {
	txn := r.store.db.Txn(false)
	defer txn.Abort()

	recs, err := projectMembers(txn, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]membership.Membership, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toMembership(rec))
	}
	return out, nil
}

func projectMembers(txn *memdb.Txn, projectID uint64) ([]*membershipRecord, error) {
	it, err := txn.Get(tableMemberships, indexProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	var recs []*membershipRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		recs = append(recs, raw.(*membershipRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Position < recs[j].Position })
	return recs, nil
}

func toMembership(rec *membershipRecord) membership.Membership {
	m := membership.Membership{
		ProjectID:     rec.ProjectID,
		Member:        common.HexToAddress(rec.Member),
		Position:      rec.Position,
		JoinedAt:      rec.JoinedAt,
		Streak:        rec.Streak,
		CheckIns:      rec.CheckIns,
		LastProofHash: rec.LastProofHash,
	}
	if rec.LastCheckInDay != nil {
		day := *rec.LastCheckInDay
		m.LastCheckInDay = &day
	}
	return m
}
