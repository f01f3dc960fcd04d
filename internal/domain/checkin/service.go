package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/repository"
	"github.com/rpggio/cotime/internal/signature"
)

// Service records daily check-ins and maintains streaks.
type Service struct {
	projects  ProjectReader
	members   MembershipReader
	repo      Repository
	verifier  SignatureVerifier
	guard     *project.Guard
	clock     clock.Clock
	window    Window
	publisher project.Publisher
	logger    *slog.Logger
}

// Config groups the collaborators of a Service.
type Config struct {
	Projects  ProjectReader
	Members   MembershipReader
	Repo      Repository
	Verifier  SignatureVerifier
	Guard     *project.Guard
	Clock     clock.Clock
	Window    Window
	Publisher project.Publisher
	Logger    *slog.Logger
}

// NewService creates a new check-in service.
func NewService(cfg Config) *Service {
	s := &Service{
		projects:  cfg.Projects,
		members:   cfg.Members,
		repo:      cfg.Repo,
		verifier:  cfg.Verifier,
		guard:     cfg.Guard,
		clock:     cfg.Clock,
		window:    cfg.Window,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.guard == nil {
		s.guard = project.NewGuard(project.DefaultMaxAttempts, s.logger)
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.verifier == nil {
		s.verifier = signature.NewVerifier()
	}
	return s
}

// CheckIn validates and records a check-in, returning the member's new streak.
func (s *Service) CheckIn(ctx context.Context, req Request) (uint32, error) {
	var (
		streak uint32
		entry  *activity.ActivityEntry
	)
	err := s.guard.Do(ctx, req.ProjectID, func(ctx context.Context) error {
		proj, err := s.projects.Get(ctx, req.ProjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return project.ErrNotFound
			}
			return fmt.Errorf("getting project: %w", err)
		}
		if proj.Finished {
			return project.ErrAlreadyFinished
		}
		if !proj.HasMember(req.Caller) {
			return fmt.Errorf("%w: %s is not a member of project %d", project.ErrUnauthorized, req.Caller.Hex(), req.ProjectID)
		}
		if strings.TrimSpace(req.ProofHash) == "" {
			return project.NewValidationError("proof_hash", "must not be empty")
		}

		now := s.clock.Now()
		if err := s.window.Check(now, req.Timestamp); err != nil {
			return err
		}

		digest := signature.CheckInDigest(req.ProjectID, req.ProofHash, req.Timestamp, req.Caller)
		if err := s.verifier.Verify(req.Caller, digest, req.Signature); err != nil {
			return fmt.Errorf("%w: %v", project.ErrSignatureMismatch, err)
		}

		m, err := s.members.Get(ctx, req.ProjectID, req.Caller)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: no membership for %s", project.ErrUnauthorized, req.Caller.Hex())
			}
			return fmt.Errorf("getting membership: %w", err)
		}

		day := DayNumber(req.Timestamp)
		if m.LastCheckInDay != nil {
			if day == *m.LastCheckInDay {
				return fmt.Errorf("%w: already checked in today", project.ErrReplay)
			}
			if day < *m.LastCheckInDay {
				return fmt.Errorf("%w: check-in older than last recorded day", project.ErrReplay)
			}
		}

		next := NextStreak(m.Streak, m.LastCheckInDay, day)
		record := &CheckIn{
			ProjectID:  req.ProjectID,
			Member:     req.Caller,
			ProofHash:  req.ProofHash,
			Timestamp:  req.Timestamp,
			Day:        day,
			Signature:  append([]byte(nil), req.Signature...),
			Streak:     next,
			RecordedAt: now,
		}
		entry, err = activity.NewEntry(activity.TypeCheckInSuccess, req.ProjectID, req.Caller.Hex(),
			fmt.Sprintf("%s checked in to project %d (streak %d)", req.Caller.Hex(), req.ProjectID, next),
			activity.CheckInSuccess{ProjectID: req.ProjectID, Member: req.Caller.Hex(), Streak: next, Day: day, ProofHash: req.ProofHash}, now)
		if err != nil {
			return err
		}

		if err := s.repo.Record(ctx, record, proj.Version, entry); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return err
			case errors.Is(err, repository.ErrDuplicate):
				return fmt.Errorf("%w: already checked in today", project.ErrReplay)
			case errors.Is(err, repository.ErrNotFound):
				return project.ErrNotFound
			default:
				return fmt.Errorf("recording check-in: %w", err)
			}
		}
		streak = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "check-in recorded", "project_id", req.ProjectID, "member", req.Caller.Hex(), "streak", streak)
	if s.publisher != nil {
		s.publisher.Publish(ctx, *entry)
	}
	return streak, nil
}

// History returns a member's accepted check-ins, most recent first.
func (s *Service) History(ctx context.Context, projectID uint64, member common.Address, offset, limit int) ([]CheckIn, error) {
	if err := project.ValidatePage(offset, limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []CheckIn{}, nil
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	list, err := s.repo.List(ctx, projectID, member, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	if list == nil {
		list = []CheckIn{}
	}
	return list, nil
}
