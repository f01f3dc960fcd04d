package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/repository"
)

// Service handles project registry and lifecycle operations.
type Service struct {
	repo      Repository
	guard     *Guard
	clock     clock.Clock
	publisher Publisher
	policy    FinishPolicy
	logger    *slog.Logger
}

// NewService creates a new project service. publisher and logger may be nil.
func NewService(repo Repository, guard *Guard, clk clock.Clock, publisher Publisher, policy FinishPolicy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if guard == nil {
		guard = NewGuard(DefaultMaxAttempts, logger)
	}
	if clk == nil {
		clk = clock.System{}
	}
	if policy == "" {
		policy = FinishByInitiator
	}
	return &Service{repo: repo, guard: guard, clock: clk, publisher: publisher, policy: policy, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name            string         `json:"name" validate:"min=1,max=16"`
	Theme           string         `json:"theme" validate:"min=1"`
	TotalStreakDays int            `json:"total_streak_days" validate:"min=1,max=365"`
	MaxMembers      int            `json:"max_members" validate:"min=1,max=255"`
	Initiator       common.Address `json:"initiator" validate:"address"`
}

// Create registers a new project. The initiator is not joined automatically.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	proj := &Project{
		Name:            req.Name,
		Theme:           req.Theme,
		Initiator:       req.Initiator,
		TotalStreakDays: uint16(req.TotalStreakDays),
		MaxMembers:      uint8(req.MaxMembers),
		Members:         []common.Address{},
		CreatedAt:       now,
	}

	entry, err := activity.NewEntry(activity.TypeProjectCreated, 0, req.Initiator.Hex(),
		fmt.Sprintf("%s created %q", req.Initiator.Hex(), req.Name),
		activity.ProjectCreated{
			Name:            proj.Name,
			Theme:           proj.Theme,
			Initiator:       proj.Initiator.Hex(),
			TotalStreakDays: proj.TotalStreakDays,
			MaxMembers:      proj.MaxMembers,
		}, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, proj, entry); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.InfoContext(ctx, "project created", "project_id", proj.ID, "initiator", proj.Initiator.Hex())
	s.publish(ctx, entry)
	return proj, nil
}

// Get returns a snapshot of a project.
func (s *Service) Get(ctx context.Context, id uint64) (Snapshot, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return proj.Snapshot(), nil
}

// List returns projects in id order.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Snapshot, error) {
	if err := ValidatePage(offset, limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []Snapshot{}, nil
	}

	projects, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	out := make([]Snapshot, 0, len(projects))
	for i := range projects {
		out = append(out, projects[i].Snapshot())
	}
	return out, nil
}

// Count returns how many projects were ever created.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}

// Finish closes a project according to the configured FinishPolicy.
func (s *Service) Finish(ctx context.Context, id uint64, caller common.Address) error {
	var entry *activity.ActivityEntry

	err := s.guard.Do(ctx, id, func(ctx context.Context) error {
		proj, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if proj.Finished {
			return ErrAlreadyFinished
		}

		now := s.clock.Now()
		if err := s.policy.Authorize(proj, caller, now); err != nil {
			return err
		}

		entry, err = activity.NewEntry(activity.TypeProjectFinished, id, caller.Hex(),
			fmt.Sprintf("%s finished project %d", caller.Hex(), id),
			activity.ProjectFinished{ProjectID: id, FinishedBy: caller.Hex()}, now)
		if err != nil {
			return err
		}

		if err := s.repo.MarkFinished(ctx, id, proj.Version, now, entry); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				return err
			}
			return fmt.Errorf("finishing project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "project finished", "project_id", id, "caller", caller.Hex())
	s.publish(ctx, entry)
	return nil
}

func (s *Service) load(ctx context.Context, id uint64) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

func (s *Service) publish(ctx context.Context, entry *activity.ActivityEntry) {
	if s.publisher != nil && entry != nil {
		s.publisher.Publish(ctx, *entry)
	}
}
