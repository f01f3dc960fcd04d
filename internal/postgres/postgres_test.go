package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	now   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func expectEntry(mock pgxmock.PgxPoolIface, seq int64) {
	mock.ExpectQuery(q(insertEntrySQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"seq"}).AddRow(seq))
}

func entry(typ activity.ActivityType) *activity.ActivityEntry {
	return &activity.ActivityEntry{ID: "entry-1", ActivityType: typ, Summary: "test", Details: "{}", CreatedAt: now}
}

func TestProjectCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewProjectRepository(mock)

	proj := &project.Project{
		Name:            "Run",
		Theme:           "daily 5k",
		Initiator:       alice,
		TotalStreakDays: 7,
		MaxMembers:      3,
		CreatedAt:       now,
	}
	e := entry(activity.TypeProjectCreated)

	mock.ExpectBegin()
	mock.ExpectQuery(q(allocateProjectIDSQL)).
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow(int64(4)))
	mock.ExpectExec(q(insertProjectSQL)).
		WithArgs(int64(4), "Run", "daily 5k", alice.Hex(), int32(7), int32(3), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectEntry(mock, 9)
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), proj, e))
	assert.Equal(t, uint64(4), proj.ID)
	assert.Equal(t, int64(1), proj.Version)
	assert.Equal(t, uint64(4), e.ProjectID)
	assert.Equal(t, int64(9), e.Seq)
	assert.Equal(t, int64(1), e.Tick)
}

func TestProjectCreateRollsBackOnInsertError(t *testing.T) {
	mock := newMock(t)
	repo := NewProjectRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(q(allocateProjectIDSQL)).
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow(int64(0)))
	mock.ExpectExec(q(insertProjectSQL)).
		WithArgs(int64(0), "Run", "t", alice.Hex(), int32(1), int32(1), now).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	proj := &project.Project{Name: "Run", Theme: "t", Initiator: alice, TotalStreakDays: 1, MaxMembers: 1, CreatedAt: now}
	err := repo.Create(context.Background(), proj, entry(activity.TypeProjectCreated))
	assert.EqualError(t, err, "inserting project: db down")
}

func TestProjectCount(t *testing.T) {
	mock := newMock(t)
	repo := NewProjectRepository(mock)

	mock.ExpectQuery(q(countProjectsSQL)).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestProjectMarkFinished(t *testing.T) {
	testCases := []struct {
		Desc    string
		Error   error
		Prepare func(mock pgxmock.PgxPoolIface)
	}{
		{
			Desc: "successful",
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(q(bumpVersionSQL)).WithArgs(int64(1), int64(2)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(q(finishProjectSQL)).WithArgs(int64(1), now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				expectEntry(mock, 5)
				mock.ExpectCommit()
			},
		},
		{
			Desc:  "stale version",
			Error: repository.ErrConflict,
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(q(bumpVersionSQL)).WithArgs(int64(1), int64(2)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(q(projectExistsSQL)).WithArgs(int64(1)).
					WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
		},
		{
			Desc:  "missing project",
			Error: repository.ErrNotFound,
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(q(bumpVersionSQL)).WithArgs(int64(1), int64(2)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(q(projectExistsSQL)).WithArgs(int64(1)).
					WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectRollback()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			mock := newMock(t)
			tc.Prepare(mock)

			e := entry(activity.TypeProjectFinished)
			err := NewProjectRepository(mock).MarkFinished(context.Background(), 1, 2, now, e)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(3), e.Tick)
			assert.Equal(t, int64(5), e.Seq)
		})
	}
}

func TestMembershipAdd(t *testing.T) {
	m := &membership.Membership{ProjectID: 1, Member: bob, Position: 1, JoinedAt: now}

	testCases := []struct {
		Desc      string
		Error     error
		InsertErr error
		Inserted  int64
	}{
		{Desc: "successful", Inserted: 1},
		{Desc: "project full", Error: repository.ErrCapacity, Inserted: 0},
		{
			Desc:      "already a member",
			Error:     repository.ErrDuplicate,
			InsertErr: &pgconn.PgError{Code: "23505", ConstraintName: "memberships_pkey"},
		},
		{
			Desc:      "position taken",
			Error:     repository.ErrConflict,
			InsertErr: &pgconn.PgError{Code: "23505", ConstraintName: "memberships_position_key"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBegin()
			mock.ExpectExec(q(bumpVersionSQL)).WithArgs(int64(1), int64(1)).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			insert := mock.ExpectExec(q(insertMembershipSQL)).WithArgs(int64(1), bob.Hex(), int32(1), now)
			if tc.InsertErr != nil {
				insert.WillReturnError(tc.InsertErr)
			} else {
				insert.WillReturnResult(pgxmock.NewResult("INSERT", tc.Inserted))
			}
			if tc.Error == nil {
				expectEntry(mock, 2)
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			e := entry(activity.TypeProjectJoined)
			err := NewMembershipRepository(mock).Add(context.Background(), m, 1, e)
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(2), e.Tick)
		})
	}
}

func TestMembershipListByMember(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(q(listByMemberSQL)).WithArgs(bob.Hex(), 10, 0).
		WillReturnRows(mock.NewRows([]string{"project_id"}).AddRow(int64(3)).AddRow(int64(1)))

	ids, err := NewMembershipRepository(mock).ListByMember(context.Background(), bob, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, ids)
}

func TestCheckInRecord(t *testing.T) {
	c := &checkin.CheckIn{
		ProjectID:  1,
		Member:     bob,
		ProofHash:  "ipfs://proof",
		Timestamp:  now.Unix(),
		Day:        now.Unix() / checkin.SecondsPerDay,
		Signature:  []byte{1, 2, 3},
		Streak:     2,
		RecordedAt: now,
	}

	testCases := []struct {
		Desc    string
		Error   error
		Prepare func(mock pgxmock.PgxPoolIface)
	}{
		{
			Desc: "successful",
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(q(advanceStreakSQL)).
					WithArgs(int64(1), bob.Hex(), c.Day, int64(2), c.ProofHash).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(q(insertCheckInSQL)).
					WithArgs(int64(1), bob.Hex(), c.ProofHash, c.Timestamp, c.Day, c.Signature, int64(2), now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				expectEntry(mock, 7)
				mock.ExpectCommit()
			},
		},
		{
			Desc:  "not a member",
			Error: repository.ErrNotFound,
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(q(advanceStreakSQL)).
					WithArgs(int64(1), bob.Hex(), c.Day, int64(2), c.ProofHash).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectRollback()
			},
		},
		{
			Desc:  "same day",
			Error: repository.ErrDuplicate,
			Prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(q(advanceStreakSQL)).
					WithArgs(int64(1), bob.Hex(), c.Day, int64(2), c.ProofHash).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(q(insertCheckInSQL)).
					WithArgs(int64(1), bob.Hex(), c.ProofHash, c.Timestamp, c.Day, c.Signature, int64(2), now).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "checkins_day_key"})
				mock.ExpectRollback()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBegin()
			mock.ExpectExec(q(bumpVersionSQL)).WithArgs(int64(1), int64(4)).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			tc.Prepare(mock)

			err := NewCheckInRepository(mock).Record(context.Background(), c, 4, entry(activity.TypeCheckInSuccess))
			if tc.Error != nil {
				assert.ErrorIs(t, err, tc.Error)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBeginFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	err := NewCheckInRepository(mock).Record(context.Background(), &checkin.CheckIn{ProjectID: 1}, 1, entry(activity.TypeCheckInSuccess))
	assert.EqualError(t, err, "beginning transaction: pool closed")
}
