package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Broker     BrokerConfig
	Mail       MailConfig
	Pagination PaginationConfig
	Cache      CacheConfig
	Cron       CronConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins string
	BodyLimitMB int
}

// IsProduction reports whether internal error messages must be hidden from clients.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

type DatabaseConfig struct {
	URL          string
	MaxIdleConns int
	MaxOpenConns int
	AutoMigrate  bool
	Seed         bool
}

type JWTConfig struct {
	Secret   string
	TTL      time.Duration
	ResetTTL time.Duration
}

// StorageConfig describes the R2 bucket that holds listing images.
type StorageConfig struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Enabled is false when no R2 credentials are set; the server then keeps images in memory.
func (s StorageConfig) Enabled() bool {
	return s.AccountID != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

type BrokerConfig struct {
	URL   string
	Queue string
}

type MailConfig struct {
	ResendAPIKey string
	From         string
	AdminEmail   string
	AppURL       string
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type CacheConfig struct {
	TTL     time.Duration
	MaxSize int64
}

type CronConfig struct {
	ReconcileSchedule string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the environment (and .env when present) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         getEnv("APP_ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimitMB: getEnvAsInt("BODY_LIMIT_MB", 50),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
			Seed:         getEnvAsBool("DB_SEED", true),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TTL:      getEnvAsDuration("JWT_TTL", 24*time.Hour),
			ResetTTL: getEnvAsDuration("JWT_RESET_TTL", 15*time.Minute),
		},
		Storage: StorageConfig{
			AccountID: getEnv("R2_ACCOUNT_ID", ""),
			AccessKey: getEnv("R2_ACCESS_KEY", ""),
			SecretKey: getEnv("R2_SECRET_KEY", ""),
			Bucket:    getEnv("R2_BUCKET_NAME", ""),
			PublicURL: strings.TrimSuffix(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
		Broker: BrokerConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "properties_queue"),
		},
		Mail: MailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("MAIL_FROM", "Listings <noreply@example.com>"),
			AdminEmail:   getEnv("ADMIN_EMAIL", ""),
			AppURL:       strings.TrimSuffix(getEnv("APP_URL", "http://localhost:5173"), "/"),
		},
		Pagination: PaginationConfig{
			DefaultLimit: getEnvAsInt("PAGINATION_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvAsInt("PAGINATION_MAX_LIMIT", 100),
		},
		Cache: CacheConfig{
			TTL:     getEnvAsDuration("CACHE_TTL", 10*time.Minute),
			MaxSize: int64(getEnvAsInt("CACHE_MAX_SIZE", 500)),
		},
		Cron: CronConfig{
			ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "*/15 * * * *"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.Pagination.DefaultLimit <= 0 {
		cfg.Pagination.DefaultLimit = 20
	}
	if cfg.Pagination.MaxLimit < cfg.Pagination.DefaultLimit {
		cfg.Pagination.MaxLimit = cfg.Pagination.DefaultLimit
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
