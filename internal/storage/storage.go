// Package storage opens the configured backend and exposes its repositories.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/cotime/internal/config"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/membership"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/rpggio/cotime/internal/memstore"
	"github.com/rpggio/cotime/internal/postgres"
	"github.com/rpggio/cotime/internal/sqlite"
)

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Driver      string
	Projects    project.Repository
	Memberships membership.Repository
	CheckIns    checkin.Repository
	Activity    activity.Repository

	close func() error
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the backend named by cfg.Driver and applies its schema.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Driver {
	case config.DriverSQLite, "":
		return openSQLite(cfg.Path, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DSN, logger)
	case config.DriverMemory:
		return OpenMemory()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenMemory returns a backend held entirely in process memory.
func OpenMemory() (*Backend, error) {
	store, err := memstore.New()
	if err != nil {
		return nil, fmt.Errorf("creating memory store: %w", err)
	}
	return &Backend{
		Driver:      config.DriverMemory,
		Projects:    memstore.NewProjectRepository(store),
		Memberships: memstore.NewMembershipRepository(store),
		CheckIns:    memstore.NewCheckInRepository(store),
		Activity:    memstore.NewActivityRepository(store),
	}, nil
}

func openSQLite(path string, logger *slog.Logger) (*Backend, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("opened sqlite database", "path", path)

	return &Backend{
		Driver:      config.DriverSQLite,
		Projects:    sqlite.NewProjectRepository(db),
		Memberships: sqlite.NewMembershipRepository(db),
		CheckIns:    sqlite.NewCheckInRepository(db),
		Activity:    sqlite.NewActivityRepository(db),
		close:       db.Close,
	}, nil
}

func openPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Backend, error) {
	pool, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to postgres")

	return &Backend{
		Driver:      config.DriverPostgres,
		Projects:    postgres.NewProjectRepository(pool),
		Memberships: postgres.NewMembershipRepository(pool),
		CheckIns:    postgres.NewCheckInRepository(pool),
		Activity:    postgres.NewActivityRepository(pool),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
