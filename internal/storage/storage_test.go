package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/config"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []config.DBConfig{
		{Driver: config.DriverSQLite, Path: filepath.Join(dir, "nested", "cotime.db")},
		{Driver: config.DriverMemory},
	}

	for _, cfg := range cases {
		t.Run(cfg.Driver, func(t *testing.T) {
			backend, err := Open(context.Background(), cfg, nil)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, backend.Close()) })
			assert.Equal(t, cfg.Driver, backend.Driver)

			now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			proj := &project.Project{
				Name:            "Read",
				Theme:           "20 pages",
				Initiator:       common.HexToAddress("0x1"),
				TotalStreakDays: 10,
				MaxMembers:      2,
				CreatedAt:       now,
			}
			entry := &activity.ActivityEntry{ID: "e1", ActivityType: activity.TypeProjectCreated, Details: "{}", CreatedAt: now}
			require.NoError(t, backend.Projects.Create(context.Background(), proj, entry))

			got, err := backend.Projects.Get(context.Background(), proj.ID)
			require.NoError(t, err)
			assert.Equal(t, "Read", got.Name)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, "mysql")
}
