package mocks

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, proj, entry)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id uint64) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, offset, limit int) ([]project.Project, error) {
	args := m.Called(ctx, offset, limit)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Count(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *ProjectRepository) MarkFinished(ctx context.Context, id uint64, expectedVersion int64, finishedAt time.Time, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, id, expectedVersion, finishedAt, entry)
	return args.Error(0)
}

// MembershipRepository is a mock for membership.Repository.
type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) Add(ctx context.Context, ms *membership.Membership, expectedVersion int64, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, ms, expectedVersion, entry)
	return args.Error(0)
}

func (m *MembershipRepository) Get(ctx context.Context, projectID uint64, member common.Address) (*membership.Membership, error) {
	args := m.Called(ctx, projectID, member)
	if ms, ok := args.Get(0).(*membership.Membership); ok {
		return ms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepository) ListByMember(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error) {
	args := m.Called(ctx, member, offset, limit)
	if ids, ok := args.Get(0).([]uint64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepository) ListByProject(ctx context.Context, projectID uint64) ([]membership.Membership, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]membership.Membership); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CheckInRepository is a mock for checkin.Repository.
type CheckInRepository struct {
	mock.Mock
}

func (m *CheckInRepository) Record(ctx context.Context, c *checkin.CheckIn, expectedVersion int64, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, c, expectedVersion, entry)
	return args.Error(0)
}

func (m *CheckInRepository) List(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]checkin.CheckIn, error) {
	args := m.Called(ctx, projectID, member, offset, limit)
	if list, ok := args.Get(0).([]checkin.CheckIn); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for project.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, entry activity.ActivityEntry) {
	m.Called(ctx, entry)
}
