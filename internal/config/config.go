package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rpggio/cotime/internal/domain/checkin"
	"github.com/rpggio/cotime/internal/domain/project"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user data directory.
const AppName = "cotime"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Transport modes.
const (
	ModeHTTP  = "http"
	ModeStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	CheckIn   CheckInConfig   `yaml:"checkin"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Retry     RetryConfig     `yaml:"retry"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls signed-caller verification for create, join and finish.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CheckInConfig struct {
	FutureTolerance time.Duration `yaml:"future_tolerance"`
	MaxAge          time.Duration `yaml:"max_age"`
}

type LifecycleConfig struct {
	FinishPolicy string `yaml:"finish_policy"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Window returns the accepted check-in timestamp window.
func (c CheckInConfig) Window() checkin.Window {
	return checkin.Window{FutureTolerance: c.FutureTolerance, MaxAge: c.MaxAge}
}

// Default returns the built-in configuration.
func Default() Config {
	window := checkin.DefaultWindow()
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: DriverSQLite,
			Path:   defaultDBPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transport: TransportConfig{
			Mode: ModeHTTP,
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		CheckIn: CheckInConfig{
			FutureTolerance: window.FutureTolerance,
			MaxAge:          window.MaxAge,
		},
		Lifecycle: LifecycleConfig{
			FinishPolicy: string(project.FinishByInitiator),
		},
		Retry: RetryConfig{
			MaxAttempts: project.DefaultMaxAttempts,
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	envFile := os.Getenv("COTIME_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if path := os.Getenv("COTIME_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("db.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("db.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}

	switch c.Transport.Mode {
	case ModeHTTP, ModeStdio:
	default:
		return fmt.Errorf("unknown transport.mode %q", c.Transport.Mode)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.CheckIn.FutureTolerance < 0 || c.CheckIn.MaxAge < 0 {
		return errors.New("checkin window durations must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if _, err := project.ParseFinishPolicy(c.Lifecycle.FinishPolicy); err != nil {
		return fmt.Errorf("lifecycle.finish_policy: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("COTIME_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("COTIME_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid COTIME_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("COTIME_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("COTIME_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv("COTIME_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if level := os.Getenv("COTIME_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("COTIME_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if logPath := os.Getenv("COTIME_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("COTIME_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("COTIME_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid COTIME_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if tol := os.Getenv("COTIME_CHECKIN_FUTURE_TOLERANCE"); tol != "" {
		d, err := time.ParseDuration(tol)
		if err != nil {
			return fmt.Errorf("invalid COTIME_CHECKIN_FUTURE_TOLERANCE: %w", err)
		}
		cfg.CheckIn.FutureTolerance = d
	}
	if age := os.Getenv("COTIME_CHECKIN_MAX_AGE"); age != "" {
		d, err := time.ParseDuration(age)
		if err != nil {
			return fmt.Errorf("invalid COTIME_CHECKIN_MAX_AGE: %w", err)
		}
		cfg.CheckIn.MaxAge = d
	}
	if policy := os.Getenv("COTIME_FINISH_POLICY"); policy != "" {
		cfg.Lifecycle.FinishPolicy = policy
	}
	if attempts := os.Getenv("COTIME_RETRY_MAX_ATTEMPTS"); attempts != "" {
		n, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid COTIME_RETRY_MAX_ATTEMPTS: %w", err)
		}
		cfg.Retry.MaxAttempts = n
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultDBPath() string {
	return filepath.Join(xdg.DataHome, AppName, "cotime.db")
}
