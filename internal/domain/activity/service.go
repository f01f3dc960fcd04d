package activity

import (
	"context"
	"fmt"
	"log/slog"
)

// Service exposes the activity log and fans new entries out to subscribers.
type Service struct {
	repo   Repository
	hub    *hub
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, hub: newHub(logger), logger: logger}
}

// Subscribe registers a listener. A nil filter receives every entry.
func (s *Service) Subscribe(buffer int, filter func(ActivityEntry) bool) *Subscription {
	return s.hub.add(buffer, filter)
}

// Publish delivers a committed entry to current subscribers without blocking.
func (s *Service) Publish(ctx context.Context, entry ActivityEntry) {
	s.logger.DebugContext(ctx, "publishing activity",
		"seq", entry.Seq,
		"type", entry.ActivityType,
		"project_id", entry.ProjectID,
	)
	s.hub.publish(entry)
}

// List returns log entries matching opts.
func (s *Service) List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit < 0 || opts.AfterSeq < 0 {
		return nil, ErrInvalidOptions
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultListLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
