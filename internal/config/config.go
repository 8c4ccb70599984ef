package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreDriver    string
	MigrateOnStart bool
	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Server         ServerConfig
	RateLimit      RateLimitConfig
	Slack          SlackConfig
	Log            LogConfig
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

// RedisConfig holds Redis connection settings. With Enabled false board
// events stay in-process.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// RateLimitConfig sets the token buckets. API limits apply per client IP
// and again per user. Auth limits guard login and registration.
type RateLimitConfig struct {
	APIRPS    float64
	APIBurst  int
	AuthRPS   float64
	AuthBurst int
}

// SlackConfig holds the ops notification channel.
type SlackConfig struct {
	BotToken string
	Channel  string
}

func (c SlackConfig) Enabled() bool { return c.BotToken != "" && c.Channel != "" }

type LogConfig struct {
	Level  string
	Format string // json or text
}

// Load reads configuration from an optional .env file and then the
// environment. Variables already set in the environment win over .env.
// Defaults are safe for local development only.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("config: .env file could not be parsed")
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		n, err := getEnvInt(key, fallback)
		errs = append(errs, err)
		return n
	}
	boolVar := func(key string, fallback bool) bool {
		b, err := getEnvBool(key, fallback)
		errs = append(errs, err)
		return b
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvDuration(key, fallback)
		errs = append(errs, err)
		return d
	}
	floatVar := func(key string, fallback float64) float64 {
		f, err := getEnvFloat(key, fallback)
		errs = append(errs, err)
		return f
	}

	cfg := &Config{
		StoreDriver:    getEnv("TASKHUB_STORE_DRIVER", StorePostgres),
		MigrateOnStart: boolVar("TASKHUB_MIGRATE_ON_START", false),
		Database: DatabaseConfig{
			Host:     getEnv("TASKHUB_DB_HOST", "localhost"),
			Port:     intVar("TASKHUB_DB_PORT", 5432),
			User:     getEnv("TASKHUB_DB_USER", "taskhub"),
			Password: getEnv("TASKHUB_DB_PASSWORD", ""),
			DBName:   getEnv("TASKHUB_DB_NAME", "taskhub_dev"),
			SSLMode:  getEnv("TASKHUB_DB_SSLMODE", "disable"),
			MaxConns: intVar("TASKHUB_DB_MAX_CONNS", 25),
		},
		Redis: RedisConfig{
			Enabled:  boolVar("TASKHUB_REDIS_ENABLED", false),
			Addr:     getEnv("TASKHUB_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TASKHUB_REDIS_PASSWORD", ""),
			DB:       intVar("TASKHUB_REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("TASKHUB_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:         getEnv("TASKHUB_SERVER_ADDR", ":5000"),
			ReadTimeout:  durVar("TASKHUB_SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: durVar("TASKHUB_SERVER_WRITE_TIMEOUT", 30*time.Second),
			CORSOrigins:  getEnvList("TASKHUB_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			APIRPS:    floatVar("TASKHUB_RATE_LIMIT_API_RPS", 10),
			APIBurst:  intVar("TASKHUB_RATE_LIMIT_API_BURST", 100),
			AuthRPS:   floatVar("TASKHUB_RATE_LIMIT_AUTH_RPS", 0.2),
			AuthBurst: intVar("TASKHUB_RATE_LIMIT_AUTH_BURST", 5),
		},
		Slack: SlackConfig{
			BotToken: getEnv("TASKHUB_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("TASKHUB_SLACK_CHANNEL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("TASKHUB_LOG_LEVEL", "info"),
			Format: getEnv("TASKHUB_LOG_FORMAT", "json"),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("TASKHUB_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TASKHUB_JWT_SECRET must be at least 32 characters")
	}

	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("TASKHUB_STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver)
	}

	if c.StoreDriver == StorePostgres && c.Database.SSLMode == "disable" {
		log.Warn().Msg("TASKHUB_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TASKHUB_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("TASKHUB_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKHUB_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKHUB_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.APIRPS <= 0 || c.RateLimit.AuthRPS <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.RateLimit.APIBurst < 1 || c.RateLimit.AuthBurst < 1 {
		return errors.New("rate limit bursts must be >= 1")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("TASKHUB_LOG_FORMAT must be json or text, got %q", c.Log.Format)
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

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
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
