package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Remote    RemoteConfig
	Store     StoreConfig
	Redis     RedisConfig
	Reconcile ReconcileConfig
	Intervene InterveneConfig
	Poll      PollConfig
	Server    ServerConfig
	Slack     SlackConfig
	LockFile  string
}

// RemoteConfig holds the remote session API settings.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string //nolint:gosec // G117: remote API credential config
	Timeout    time.Duration
	RatePerSec float64
	RateBurst  int
}

// StoreConfig selects and configures the durable store backend.
type StoreConfig struct {
	Driver     string // "postgres" or "sqlite"
	SQLitePath string
	Database   DatabaseConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// freshness cache and the reconcile event stream.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis endpoint is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// ReconcileConfig tunes the periodic reconciliation pass.
type ReconcileConfig struct {
	Interval          time.Duration
	DiscoveryPageSize int
	ActivityPageSize  int
}

// InterveneConfig tunes automated intervention dispatch.
type InterveneConfig struct {
	Enabled         bool
	AutoApprove     bool
	DelegateURL     string
	DelegateTimeout time.Duration
}

// PollConfig tunes the interactive single-session poller.
type PollConfig struct {
	Interval           time.Duration
	ApprovalRetryDelay time.Duration
	Timeout            time.Duration
}

// ServerConfig holds HTTP server settings. An empty APIToken leaves the API
// unauthenticated (local use).
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	APIToken     string //nolint:gosec // G117: API auth token config
}

// SlackConfig holds Slack notification settings. An empty BotToken disables
// notifications.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only; the remote API key must
// always be set explicitly.
func Load() (*Config, error) {
	remoteTimeout, err := getEnvDuration("VIGIL_REMOTE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	ratePerSec, err := getEnvFloat("VIGIL_REMOTE_RATE_PER_SEC", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("VIGIL_REMOTE_RATE_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("VIGIL_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("VIGIL_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("VIGIL_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reconcileInterval, err := getEnvDuration("VIGIL_RECONCILE_INTERVAL", 3*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	discoveryPageSize, err := getEnvInt("VIGIL_DISCOVERY_PAGE_SIZE", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	activityPageSize, err := getEnvInt("VIGIL_ACTIVITY_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	interveneEnabled, err := getEnvBool("VIGIL_INTERVENE_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	autoApprove, err := getEnvBool("VIGIL_AUTO_APPROVE_PLANS", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	delegateTimeout, err := getEnvDuration("VIGIL_DELEGATE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollInterval, err := getEnvDuration("VIGIL_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	approvalRetryDelay, err := getEnvDuration("VIGIL_POLL_APPROVAL_RETRY_DELAY", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollTimeout, err := getEnvDuration("VIGIL_POLL_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("VIGIL_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("VIGIL_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("VIGIL_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Remote: RemoteConfig{
			BaseURL:    getEnv("VIGIL_REMOTE_BASE_URL", "https://jules.googleapis.com/v1alpha"),
			APIKey:     getEnv("VIGIL_REMOTE_API_KEY", ""),
			Timeout:    remoteTimeout,
			RatePerSec: ratePerSec,
			RateBurst:  rateBurst,
		},
		Store: StoreConfig{
			Driver:     getEnv("VIGIL_STORE_DRIVER", DriverSQLite),
			SQLitePath: getEnv("VIGIL_SQLITE_PATH", "vigil.db"),
			Database: DatabaseConfig{
				Host:     getEnv("VIGIL_DB_HOST", "localhost"),
				Port:     dbPort,
				User:     getEnv("VIGIL_DB_USER", "vigil"),
				Password: getEnv("VIGIL_DB_PASSWORD", ""),
				DBName:   getEnv("VIGIL_DB_NAME", "vigil_dev"),
				SSLMode:  getEnv("VIGIL_DB_SSLMODE", "disable"),
				MaxConns: dbMaxConns,
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("VIGIL_REDIS_ADDR", ""),
			Password: getEnv("VIGIL_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Reconcile: ReconcileConfig{
			Interval:          reconcileInterval,
			DiscoveryPageSize: discoveryPageSize,
			ActivityPageSize:  activityPageSize,
		},
		Intervene: InterveneConfig{
			Enabled:         interveneEnabled,
			AutoApprove:     autoApprove,
			DelegateURL:     getEnv("VIGIL_DELEGATE_URL", ""),
			DelegateTimeout: delegateTimeout,
		},
		Poll: PollConfig{
			Interval:           pollInterval,
			ApprovalRetryDelay: approvalRetryDelay,
			Timeout:            pollTimeout,
		},
		Server: ServerConfig{
			Addr:         getEnv("VIGIL_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
			APIToken:     getEnv("VIGIL_API_TOKEN", ""),
		},
		Slack: SlackConfig{
			BotToken: getEnv("VIGIL_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("VIGIL_SLACK_CHANNEL", ""),
		},
		LockFile: getEnv("VIGIL_LOCK_FILE", "vigil.lock"),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Remote.APIKey == "" {
		return errors.New("VIGIL_REMOTE_API_KEY is required")
	}
	if c.Remote.BaseURL == "" {
		return errors.New("VIGIL_REMOTE_BASE_URL must not be empty")
	}
	if c.Remote.RatePerSec <= 0 {
		return fmt.Errorf("VIGIL_REMOTE_RATE_PER_SEC must be positive, got %g", c.Remote.RatePerSec)
	}
	if c.Remote.RateBurst < 1 {
		return fmt.Errorf("VIGIL_REMOTE_RATE_BURST must be >= 1, got %d", c.Remote.RateBurst)
	}

	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("VIGIL_STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Store.Driver)
	}
	if c.Store.Driver == DriverSQLite && c.Store.SQLitePath == "" {
		return errors.New("VIGIL_SQLITE_PATH must not be empty")
	}
	if c.Store.Driver == DriverPostgres {
		if c.Store.Database.Port < 1 || c.Store.Database.Port > 65535 {
			return fmt.Errorf("VIGIL_DB_PORT must be 1-65535, got %d", c.Store.Database.Port)
		}
		if c.Store.Database.MaxConns < 1 {
			return fmt.Errorf("VIGIL_DB_MAX_CONNS must be >= 1, got %d", c.Store.Database.MaxConns)
		}
		if c.Store.Database.SSLMode == "disable" {
			log.Warn().Msg("VIGIL_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
	}

	if c.Reconcile.Interval < time.Second {
		return fmt.Errorf("VIGIL_RECONCILE_INTERVAL must be >= 1s, got %s", c.Reconcile.Interval)
	}
	if c.Reconcile.DiscoveryPageSize < 1 || c.Reconcile.DiscoveryPageSize > 100 {
		return fmt.Errorf("VIGIL_DISCOVERY_PAGE_SIZE must be 1-100, got %d", c.Reconcile.DiscoveryPageSize)
	}
	if c.Reconcile.ActivityPageSize < 1 || c.Reconcile.ActivityPageSize > 100 {
		return fmt.Errorf("VIGIL_ACTIVITY_PAGE_SIZE must be 1-100, got %d", c.Reconcile.ActivityPageSize)
	}

	if c.Intervene.DelegateTimeout <= 0 {
		return fmt.Errorf("VIGIL_DELEGATE_TIMEOUT must be positive, got %s", c.Intervene.DelegateTimeout)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("VIGIL_POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.ApprovalRetryDelay <= 0 {
		return fmt.Errorf("VIGIL_POLL_APPROVAL_RETRY_DELAY must be positive, got %s", c.Poll.ApprovalRetryDelay)
	}
	if c.Poll.Timeout <= 0 {
		return fmt.Errorf("VIGIL_POLL_TIMEOUT must be positive, got %s", c.Poll.Timeout)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("VIGIL_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("VIGIL_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
