// Package app wires storage, domain services and the request handler.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/cotime/internal/clock"
	"github.com/rpggio/cotime/internal/config"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/rpc"
	"github.com/rpggio/cotime/internal/signature"
	"github.com/rpggio/cotime/internal/storage"
)

// App holds the running services.
type App struct {
	Backend     *storage.Backend
	Clock       clock.Clock
	Activity    *activity.Service
	Projects    *project.Service
	Memberships *membership.Service
	CheckIns    *checkin.Service
	Handler     *rpc.Handler
}

// Open connects the configured backend and wires the services over it.
func Open(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*App, error) {
	backend, err := storage.Open(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a, err := New(backend, cfg, clk, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// New wires services over an open backend. All services share one guard so
// mutations on the same project are serialized across operations.
func New(backend *storage.Backend, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.System{}
	}

	policy, err := project.ParseFinishPolicy(cfg.Lifecycle.FinishPolicy)
	if err != nil {
		return nil, err
	}

	verifier := signature.NewVerifier()
	window := cfg.CheckIn.Window()
	guard := project.NewGuard(cfg.Retry.MaxAttempts, logger)
	activitySvc := activity.NewService(backend.Activity, logger)

	projectSvc := project.NewService(backend.Projects, guard, clk, activitySvc, policy, logger)
	membershipSvc := membership.NewService(backend.Projects, backend.Memberships, guard, clk, activitySvc, logger)
	checkinSvc := checkin.NewService(checkin.Config{
		Projects:  backend.Projects,
		Members:   backend.Memberships,
		Repo:      backend.CheckIns,
		Verifier:  verifier,
		Guard:     guard,
		Clock:     clk,
		Window:    window,
		Publisher: activitySvc,
		Logger:    logger,
	})

	handler := rpc.NewHandler(rpc.Services{
		Projects:    projectSvc,
		Memberships: membershipSvc,
		CheckIns:    checkinSvc,
		Activity:    activitySvc,
	}, rpc.NewAuthenticator(cfg.Auth.Enabled, verifier, clk, window), logger)

	return &App{
		Backend:     backend,
		Clock:       clk,
		Activity:    activitySvc,
		Projects:    projectSvc,
		Memberships: membershipSvc,
		CheckIns:    checkinSvc,
		Handler:     handler,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}
