package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
)

// ErrNotMember indicates a membership lookup for an address that never joined.
var ErrNotMember = fmt.Errorf("%w: membership", project.ErrNotFound)

// Service manages joins and membership queries.
type Service struct {
	projects  ProjectReader
	repo      Repository
	guard     *project.Guard
	clock     clock.Clock
	publisher project.Publisher
	logger    *slog.Logger
}

// NewService creates a new membership service. publisher and logger may be nil.
func NewService(projects ProjectReader, repo Repository, guard *project.Guard, clk clock.Clock, publisher project.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if guard == nil {
		guard = project.NewGuard(project.DefaultMaxAttempts, logger)
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{projects: projects, repo: repo, guard: guard, clock: clk, publisher: publisher, logger: logger}
}

// Join appends caller to the project's member list.
func (s *Service) Join(ctx context.Context, projectID uint64, caller common.Address) (*Membership, error) {
	if caller == (common.Address{}) {
		return nil, project.NewValidationError("caller", "must be a non-zero address")
	}

	var (
		joined *Membership
		entry  *activity.ActivityEntry
	)
	err := s.guard.Do(ctx, projectID, func(ctx context.Context) error {
		proj, err := s.loadProject(ctx, projectID)
		if err != nil {
			return err
		}
		if proj.Finished {
			return project.ErrAlreadyFinished
		}
		if proj.HasMember(caller) {
			return project.ErrDuplicateMembership
		}
		if proj.IsFull() {
			return project.ErrCapacity
		}

		now := s.clock.Now()
		m := &Membership{
			ProjectID: projectID,
			Member:    caller,
			Position:  len(proj.Members),
			JoinedAt:  now,
		}
		entry, err = activity.NewEntry(activity.TypeProjectJoined, projectID, caller.Hex(),
			fmt.Sprintf("%s joined project %d", caller.Hex(), projectID),
			activity.ProjectJoined{ProjectID: projectID, Member: caller.Hex(), Position: m.Position}, now)
		if err != nil {
			return err
		}

		if err := s.repo.Add(ctx, m, proj.Version, entry); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return err
			case errors.Is(err, repository.ErrDuplicate):
				return project.ErrDuplicateMembership
			case errors.Is(err, repository.ErrCapacity):
				return project.ErrCapacity
			case errors.Is(err, repository.ErrNotFound):
				return project.ErrNotFound
			default:
				return fmt.Errorf("adding member: %w", err)
			}
		}
		joined = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "member joined", "project_id", projectID, "member", caller.Hex(), "position", joined.Position)
	if s.publisher != nil {
		s.publisher.Publish(ctx, *entry)
	}
	return joined, nil
}

// Members returns the project's members in join order.
func (s *Service) Members(ctx context.Context, projectID uint64) ([]common.Address, error) {
	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return append(make([]common.Address, 0, len(proj.Members)), proj.Members...), nil
}

// IsMember reports whether member joined the project.
func (s *Service) IsMember(ctx context.Context, projectID uint64, member common.Address) (bool, error) {
	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	return proj.HasMember(member), nil
}

// Membership returns member's streak state in a project.
func (s *Service) Membership(ctx context.Context, projectID uint64, member common.Address) (*Membership, error) {
	if _, err := s.loadProject(ctx, projectID); err != nil {
		return nil, err
	}
	m, err := s.repo.Get(ctx, projectID, member)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("getting membership: %w", err)
	}
	return m, nil
}

// MyProjects lists the projects member joined, oldest join first.
// A page shorter than limit means there are no more.
func (s *Service) MyProjects(ctx context.Context, member common.Address, offset, limit int) ([]uint64, error) {
	if err := project.ValidatePage(offset, limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []uint64{}, nil
	}

	ids, err := s.repo.ListByMember(ctx, member, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing member projects: %w", err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// Roster returns every membership of a project in join order.
func (s *Service) Roster(ctx context.Context, projectID uint64) ([]Membership, error) {
	if _, err := s.loadProject(ctx, projectID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return list, nil
}

func (s *Service) loadProject(ctx context.Context, id uint64) (*project.Project, error) {
	proj, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}
