package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COTIME_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("COTIME_CONFIG_PATH", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "cotime.db", filepath.Base(cfg.DB.Path))
	assert.Equal(t, ModeHTTP, cfg.Transport.Mode)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.CheckIn.FutureTolerance)
	assert.Equal(t, 10*time.Minute, cfg.CheckIn.MaxAge)
	assert.Equal(t, "initiator", cfg.Lifecycle.FinishPolicy)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "cotime.yaml")
	yamlDoc := `
server:
  port: 9090
db:
  driver: memory
checkin:
  future_tolerance: 1m
  max_age: 30m
lifecycle:
  finish_policy: initiator_after_end
retry:
  max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("COTIME_CONFIG_PATH", path)
	t.Setenv("COTIME_SERVER_PORT", "9191")
	t.Setenv("COTIME_AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, time.Minute, cfg.CheckIn.Window().FutureTolerance)
	assert.Equal(t, 30*time.Minute, cfg.CheckIn.Window().MaxAge)
	assert.Equal(t, "initiator_after_end", cfg.Lifecycle.FinishPolicy)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestLoadKeepsExplicitZeroWindow(t *testing.T) {
	isolate(t)
	t.Setenv("COTIME_CHECKIN_FUTURE_TOLERANCE", "0s")
	t.Setenv("COTIME_CHECKIN_MAX_AGE", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.CheckIn.Window().FutureTolerance)
	assert.Zero(t, cfg.CheckIn.Window().MaxAge)
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("COTIME_TEST_DOTENV_DRIVER=memory\n"), 0o600))
	t.Setenv("COTIME_ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("COTIME_TEST_DOTENV_DRIVER") })

	_, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", os.Getenv("COTIME_TEST_DOTENV_DRIVER"))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad port":     {"COTIME_SERVER_PORT", "eighty"},
		"bad driver":   {"COTIME_DB_DRIVER", "mysql"},
		"bad policy":   {"COTIME_FINISH_POLICY", "anyone"},
		"bad duration": {"COTIME_CHECKIN_MAX_AGE", "soon"},
		"bad attempts": {"COTIME_RETRY_MAX_ATTEMPTS", "0"},
		"bad mode":     {"COTIME_TRANSPORT", "grpc"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	cfg := Default()
	cfg.DB.Driver = DriverPostgres
	assert.ErrorContains(t, cfg.Validate(), "db.dsn")

	cfg.DB.DSN = "postgres://localhost/cotime"
	assert.NoError(t, cfg.Validate())
}
