package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCheckInRepository_Record(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	members := NewMembershipRepository(db)
	checkins := NewCheckInRepository(db)
	ctx := context.Background()

	proj := testProject("Daily", 2)
	require.NoError(t, projects.Create(ctx, proj, testEntry(t, activity.TypeProjectCreated, 0, alice)))
	require.NoError(t, members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: bob, JoinedAt: created}, 1,
		testEntry(t, activity.TypeProjectJoined, proj.ID, bob)))

	c := &checkin.CheckIn{
		ProjectID:  proj.ID,
		Member:     bob,
		ProofHash:  "Qm1",
		Timestamp:  created.Unix(),
		Day:        checkin.DayNumber(created.Unix()),
		Signature:  []byte{1, 2, 3},
		Streak:     1,
		RecordedAt: created,
	}
	entry := testEntry(t, activity.TypeCheckInSuccess, proj.ID, bob)
	require.NoError(t, checkins.Record(ctx, c, 2, entry))
	require.Equal(t, int64(3), entry.Tick)

	m, err := members.Get(ctx, proj.ID, bob)
	require.NoError(t, err)
	require.NotNil(t, m.LastCheckInDay)
	require.Equal(t, c.Day, *m.LastCheckInDay)
	require.Equal(t, uint32(1), m.Streak)
	require.Equal(t, uint32(1), m.CheckIns)
	require.Equal(t, "Qm1", m.LastProofHash)

	// Same day at the current version hits the unique backstop.
	dup := *c
	err = checkins.Record(ctx, &dup, 3, testEntry(t, activity.TypeCheckInSuccess, proj.ID, bob))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	// Stale version.
	next := *c
	next.Day++
	err = checkins.Record(ctx, &next, 2, testEntry(t, activity.TypeCheckInSuccess, proj.ID, bob))
	require.ErrorIs(t, err, repository.ErrConflict)

	// Non-member.
	stranger := *c
	stranger.Member = carol
	err = checkins.Record(ctx, &stranger, 3, testEntry(t, activity.TypeCheckInSuccess, proj.ID, carol))
	require.ErrorIs(t, err, repository.ErrNotFound)

	history, err := checkins.List(ctx, proj.ID, bob, 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, []byte{1, 2, 3}, history[0].Signature)
	require.Equal(t, "Qm1", history[0].ProofHash)
}
