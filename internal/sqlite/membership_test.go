package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestMembershipRepository_Add(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	members := NewMembershipRepository(db)
	ctx := context.Background()

	proj := testProject("Pair", 2)
	require.NoError(t, projects.Create(ctx, proj, testEntry(t, activity.TypeProjectCreated, 0, alice)))

	entry := testEntry(t, activity.TypeProjectJoined, proj.ID, alice)
	require.NoError(t, members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: alice, Position: 0, JoinedAt: created}, 1, entry))
	require.Equal(t, int64(2), entry.Tick)

	// Stale version.
	err := members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: bob, Position: 1, JoinedAt: created}, 1,
		testEntry(t, activity.TypeProjectJoined, proj.ID, bob))
	require.ErrorIs(t, err, repository.ErrConflict)

	// Same member again at a fresh version.
	err = members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: alice, Position: 1, JoinedAt: created}, 2,
		testEntry(t, activity.TypeProjectJoined, proj.ID, alice))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	// Position outside the cap.
	err = members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: bob, Position: 2, JoinedAt: created}, 2,
		testEntry(t, activity.TypeProjectJoined, proj.ID, bob))
	require.ErrorIs(t, err, repository.ErrCapacity)

	// Failed writes left the version untouched.
	require.NoError(t, members.Add(ctx, &membership.Membership{ProjectID: proj.ID, Member: bob, Position: 1, JoinedAt: created}, 2,
		testEntry(t, activity.TypeProjectJoined, proj.ID, bob)))

	list, err := members.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, alice, list[0].Member)
	require.Equal(t, bob, list[1].Member)
}

func TestMembershipRepository_AddUnknownProject(t *testing.T) {
	db := NewTestDB(t)
	members := NewMembershipRepository(db)

	err := members.Add(context.Background(), &membership.Membership{ProjectID: 5, Member: alice, JoinedAt: created}, 1,
		testEntry(t, activity.TypeProjectJoined, 5, alice))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMembershipRepository_ListByMemberOrdersByJoin(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	members := NewMembershipRepository(db)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, projects.Create(ctx, testProject("P", 5), testEntry(t, activity.TypeProjectCreated, 0, alice)))
	}
	// Join in the order 2, 0, 3 with increasing times.
	for i, pid := range []uint64{2, 0, 3} {
		m := &membership.Membership{ProjectID: pid, Member: bob, Position: 0, JoinedAt: created.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, members.Add(ctx, m, 1, testEntry(t, activity.TypeProjectJoined, pid, bob)))
	}

	page1, err := members.ListByMember(ctx, bob, 0, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 0}, page1)

	page2, err := members.ListByMember(ctx, bob, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, page2)

	none, err := members.ListByMember(ctx, carol, 0, 10)
	require.NoError(t, err)
	require.Empty(t, none)

	m, err := members.Get(ctx, 0, bob)
	require.NoError(t, err)
	require.Nil(t, m.LastCheckInDay)
	require.Zero(t, m.Streak)

	_, err = members.Get(ctx, 1, bob)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
