package sqlite

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var (
	alice   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	bob     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	carol   = common.HexToAddress("0x3000000000000000000000000000000000000003")
	created = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func testEntry(t *testing.T, typ activity.ActivityType, projectID uint64, member common.Address) *activity.ActivityEntry {
	t.Helper()
	entry, err := activity.NewEntry(typ, projectID, member.Hex(), string(typ), map[string]string{"member": member.Hex()}, created)
	require.NoError(t, err)
	return entry
}

func testProject(name string, maxMembers uint8) *project.Project {
	return &project.Project{
		Name:            name,
		Theme:           "Reading",
		Initiator:       alice,
		TotalStreakDays: 30,
		MaxMembers:      maxMembers,
		CreatedAt:       created,
	}
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"schema_version",
		"counters",
		"projects",
		"memberships",
		"checkins",
		"activity_log",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Re-running is a no-op.
	require.NoError(t, db.RunMigrations())
	var versions int
	require.NoError(t, db.Get(&versions, "SELECT COUNT(*) FROM schema_version"))
	require.Equal(t, len(migrations), versions)
}
