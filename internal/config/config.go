package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Metrics      MetricsConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Email        EmailConfig
	Chat         ChatConfig
	Push         PushConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// MetricsConfig configures the standalone prometheus listener.
type MetricsConfig struct {
	Addr string
}

// AuthConfig defines token validation parameters. Tokens are issued by the
// external auth service; this core only validates them.
type AuthConfig struct {
	JWTSecret string
}

// NotificationConfig tunes the delivery core and its schedulers.
type NotificationConfig struct {
	DefaultTimezone       string
	AdapterTimeoutSeconds int
	BulkConcurrency       int
	RetryIntervalMinutes  int
	RetryMaxAttempts      int
	RetryBatchSize        int
	DigestDailyTime       string // "HH:MM", server time
	DigestWeeklyDay       int    // 0=Sunday .. 6=Saturday
	DigestWeeklyTime      string // "HH:MM", server time
	DigestMaxTitles       int
}

// EmailConfig holds SMTP transport values for the email channel.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// ChatConfig holds the chat-bot webhook endpoint.
type ChatConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// PushConfig holds the push gateway endpoint.
type PushConfig struct {
	GatewayURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "notification-center"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Notification: NotificationConfig{
			DefaultTimezone:       getEnv("NOTIFY_DEFAULT_TIMEZONE", "UTC"),
			AdapterTimeoutSeconds: getEnvAsInt("NOTIFY_ADAPTER_TIMEOUT_SECONDS", 10),
			BulkConcurrency:       getEnvAsInt("NOTIFY_BULK_CONCURRENCY", 8),
			RetryIntervalMinutes:  getEnvAsInt("NOTIFY_RETRY_INTERVAL_MINUTES", 5),
			RetryMaxAttempts:      getEnvAsInt("NOTIFY_RETRY_MAX_ATTEMPTS", 3),
			RetryBatchSize:        getEnvAsInt("NOTIFY_RETRY_BATCH_SIZE", 50),
			DigestDailyTime:       getEnv("NOTIFY_DIGEST_DAILY_TIME", "08:00"),
			DigestWeeklyDay:       getEnvAsInt("NOTIFY_DIGEST_WEEKLY_DAY", 1),
			DigestWeeklyTime:      getEnv("NOTIFY_DIGEST_WEEKLY_TIME", "08:00"),
			DigestMaxTitles:       getEnvAsInt("NOTIFY_DIGEST_MAX_TITLES", 10),
		},
		Email: EmailConfig{
			Host:     os.Getenv("NOTIFY_SMTP_HOST"),
			Port:     getEnv("NOTIFY_SMTP_PORT", "587"),
			Username: os.Getenv("NOTIFY_SMTP_USERNAME"),
			Password: os.Getenv("NOTIFY_SMTP_PASSWORD"),
			From:     getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
		},
		Chat: ChatConfig{
			WebhookURL:     os.Getenv("NOTIFY_CHAT_WEBHOOK_URL"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_CHAT_TIMEOUT_SECONDS", 10),
		},
		Push: PushConfig{
			GatewayURL:     os.Getenv("NOTIFY_PUSH_GATEWAY_URL"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_PUSH_TIMEOUT_SECONDS", 10),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AdapterTimeout bounds a single channel adapter call.
func (n NotificationConfig) AdapterTimeout() time.Duration {
	if n.AdapterTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.AdapterTimeoutSeconds) * time.Second
}

// RetryInterval is the cadence of the retry sweep.
func (n NotificationConfig) RetryInterval() time.Duration {
	if n.RetryIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(n.RetryIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
