package project_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
	"github.com/rpggio/cotime/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x1000000000000000000000000000000000000001")
	bob   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func validCreate() project.CreateRequest {
	return project.CreateRequest{
		Name:            "Read30",
		Theme:           "Reading",
		TotalStreakDays: 30,
		MaxMembers:      2,
		Initiator:       alice,
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*project.CreateRequest)
		field string
	}{
		{"empty name", func(r *project.CreateRequest) { r.Name = "" }, "name"},
		{"long name", func(r *project.CreateRequest) { r.Name = strings.Repeat("x", 17) }, "name"},
		{"empty theme", func(r *project.CreateRequest) { r.Theme = "" }, "theme"},
		{"zero days", func(r *project.CreateRequest) { r.TotalStreakDays = 0 }, "total_streak_days"},
		{"too many days", func(r *project.CreateRequest) { r.TotalStreakDays = 366 }, "total_streak_days"},
		{"zero members", func(r *project.CreateRequest) { r.MaxMembers = 0 }, "max_members"},
		{"too many members", func(r *project.CreateRequest) { r.MaxMembers = 256 }, "max_members"},
		{"zero initiator", func(r *project.CreateRequest) { r.Initiator = common.Address{} }, "initiator"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mocks.ProjectRepository{}
			svc := project.NewService(repo, nil, clock.NewManual(start), nil, "", nil)

			req := validCreate()
			tc.edit(&req)
			_, err := svc.Create(context.Background(), req)
			require.ErrorIs(t, err, project.ErrValidation)

			var verr *project.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProjectService_CreateAcceptsNameBounds(t *testing.T) {
	for name, value := range map[string]string{
		"multibyte":  strings.Repeat("é", 16),
		"one space":  " ",
		"one letter": "R",
	} {
		t.Run(name, func(t *testing.T) {
			repo := &mocks.ProjectRepository{}
			repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			svc := project.NewService(repo, nil, clock.NewManual(start), nil, "", nil)

			req := validCreate()
			req.Name = value
			_, err := svc.Create(context.Background(), req)
			require.NoError(t, err)
		})
	}
}

func TestProjectService_CreatePublishes(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	pub := &mocks.Publisher{}

	repo.On("Create", ctx, mock.AnythingOfType("*project.Project"), mock.AnythingOfType("*activity.ActivityEntry")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*project.Project)
			p.ID = 4
			p.Version = 1
			e := args.Get(2).(*activity.ActivityEntry)
			require.NoError(t, e.AssignProject(4))
			e.Seq = 10
			e.Tick = 1
		}).
		Return(nil)
	pub.On("Publish", ctx, mock.MatchedBy(func(e activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeProjectCreated && e.ProjectID == 4
	})).Return()

	svc := project.NewService(repo, nil, clock.NewManual(start), pub, "", nil)
	proj, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Equal(t, uint64(4), proj.ID)
	require.Equal(t, start, proj.CreatedAt)
	require.Empty(t, proj.Members)

	pub.AssertExpectations(t)
	var payload activity.ProjectCreated
	entry := pub.Calls[0].Arguments.Get(1).(activity.ActivityEntry)
	require.NoError(t, entry.Decode(&payload))
	require.Equal(t, activity.ProjectCreated{
		ID:              4,
		Name:            "Read30",
		Theme:           "Reading",
		Initiator:       alice.Hex(),
		TotalStreakDays: 30,
		MaxMembers:      2,
	}, payload)
}

func TestProjectService_GetNotFound(t *testing.T) {
	repo := &mocks.ProjectRepository{}
	repo.On("Get", mock.Anything, uint64(9)).Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil, nil, nil, "", nil)
	_, err := svc.Get(context.Background(), 9)
	require.ErrorIs(t, err, project.ErrNotFound)
}

func TestProjectService_ListValidatesPage(t *testing.T) {
	svc := project.NewService(&mocks.ProjectRepository{}, nil, nil, nil, "", nil)

	_, err := svc.List(context.Background(), -1, 10)
	require.ErrorIs(t, err, project.ErrValidation)
	_, err = svc.List(context.Background(), 0, -1)
	require.ErrorIs(t, err, project.ErrValidation)

	list, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestProjectService_SnapshotIsCopy(t *testing.T) {
	stored := &project.Project{ID: 1, Initiator: alice, MaxMembers: 3, Members: []common.Address{alice}, Version: 2}
	repo := &mocks.ProjectRepository{}
	repo.On("Get", mock.Anything, uint64(1)).Return(stored, nil)

	svc := project.NewService(repo, nil, nil, nil, "", nil)
	snap, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, snap.MemberCount)

	snap.Members[0] = bob
	require.Equal(t, alice, stored.Members[0])
}

func TestProjectService_Finish(t *testing.T) {
	ctx := context.Background()

	t.Run("initiator finishes", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		pub := &mocks.Publisher{}
		repo.On("Get", mock.Anything, uint64(1)).Return(&project.Project{ID: 1, Initiator: alice, Version: 3}, nil)
		repo.On("MarkFinished", mock.Anything, uint64(1), int64(3), mock.AnythingOfType("time.Time"), mock.AnythingOfType("*activity.ActivityEntry")).Return(nil)
		pub.On("Publish", ctx, mock.Anything).Return()

		svc := project.NewService(repo, nil, clock.NewManual(start), pub, "", nil)
		require.NoError(t, svc.Finish(ctx, 1, alice))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("non-initiator rejected", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("Get", mock.Anything, uint64(1)).Return(&project.Project{ID: 1, Initiator: alice, Members: []common.Address{bob}}, nil)

		svc := project.NewService(repo, nil, clock.NewManual(start), nil, "", nil)
		require.ErrorIs(t, svc.Finish(ctx, 1, bob), project.ErrUnauthorized)
	})

	t.Run("already finished", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("Get", mock.Anything, uint64(1)).Return(&project.Project{ID: 1, Initiator: alice, Finished: true}, nil)

		svc := project.NewService(repo, nil, clock.NewManual(start), nil, "", nil)
		require.ErrorIs(t, svc.Finish(ctx, 1, alice), project.ErrAlreadyFinished)
	})

	t.Run("missing project", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("Get", mock.Anything, uint64(5)).Return(nil, repository.ErrNotFound)

		svc := project.NewService(repo, nil, clock.NewManual(start), nil, "", nil)
		require.ErrorIs(t, svc.Finish(ctx, 5, alice), project.ErrNotFound)
	})
}

func TestProjectService_FinishRetriesConflicts(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", mock.Anything, uint64(1)).Return(&project.Project{ID: 1, Initiator: alice, Version: 3}, nil)
	repo.On("MarkFinished", mock.Anything, uint64(1), int64(3), mock.Anything, mock.Anything).Return(repository.ErrConflict).Twice()
	repo.On("MarkFinished", mock.Anything, uint64(1), int64(3), mock.Anything, mock.Anything).Return(nil).Once()

	svc := project.NewService(repo, project.NewGuard(3, nil), clock.NewManual(start), nil, "", nil)
	require.NoError(t, svc.Finish(ctx, 1, alice))
	repo.AssertNumberOfCalls(t, "Get", 3)
	repo.AssertNumberOfCalls(t, "MarkFinished", 3)
}

func TestProjectService_FinishGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", mock.Anything, uint64(1)).Return(&project.Project{ID: 1, Initiator: alice, Version: 3}, nil)
	repo.On("MarkFinished", mock.Anything, uint64(1), int64(3), mock.Anything, mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, project.NewGuard(2, nil), clock.NewManual(start), nil, "", nil)
	err := svc.Finish(ctx, 1, alice)
	require.ErrorIs(t, err, project.ErrTransientConflict)

	var cerr *project.ConflictError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, 2, cerr.Attempts)
	repo.AssertNumberOfCalls(t, "MarkFinished", 2)
}
