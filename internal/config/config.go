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
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Clustering ClusteringConfig
	Surge      SurgeConfig
	Dispatch   DispatchConfig
	Triage     TriageConfig
	Jobs       JobsConfig
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

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorID            string
	OperatorSecretHash    string
}

// ClusteringConfig tunes the similarity clusterer.
type ClusteringConfig struct {
	SimilarityThreshold float64
	LookbackHours       int
	CandidateCap        int
	GroupNameMaxLen     int
}

// SurgeConfig tunes the mass-resolution gate.
type SurgeConfig struct {
	ApprovalThreshold int
	WindowSeconds     int
}

// DispatchConfig tunes notification delivery and retry.
type DispatchConfig struct {
	MaxRetries          int
	RetryBackoffSeconds int
	WebhookEndpoint     string
	HTTPTimeoutSeconds  int
}

// TriageConfig tunes calls to the classification/embedding provider.
type TriageConfig struct {
	MaxRetries         int
	BackoffSeconds     int
	MaxBackoffSeconds  int
	CooldownTTLSeconds int
}

// JobsConfig tunes the background queue and chaos hooks.
type JobsConfig struct {
	Workers             int
	QueueMaxRetries     int
	RetryDelaySeconds   int
	ForceFailTTLMinutes int
	SweepCronSpec       string
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
			Name:                  getEnv("APP_NAME", "dedup-service"),
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
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorID:            getEnv("AUTH_OPERATOR_ID", "operator"),
			OperatorSecretHash:    os.Getenv("AUTH_OPERATOR_SECRET_HASH"),
		},
		Clustering: ClusteringConfig{
			SimilarityThreshold: getEnvAsFloat("CLUSTER_SIMILARITY_THRESHOLD", 0.82),
			LookbackHours:       getEnvAsInt("CLUSTER_LOOKBACK_HOURS", 24),
			CandidateCap:        getEnvAsInt("CLUSTER_CANDIDATE_CAP", 200),
			GroupNameMaxLen:     getEnvAsInt("CLUSTER_GROUP_NAME_MAX_LEN", 60),
		},
		Surge: SurgeConfig{
			ApprovalThreshold: getEnvAsInt("SURGE_APPROVAL_THRESHOLD", 5),
			WindowSeconds:     getEnvAsInt("SURGE_WINDOW_SECONDS", 300),
		},
		Dispatch: DispatchConfig{
			MaxRetries:          getEnvAsInt("DISPATCH_MAX_RETRIES", 3),
			RetryBackoffSeconds: getEnvAsInt("DISPATCH_RETRY_BACKOFF_SECONDS", 30),
			WebhookEndpoint:     getEnv("DISPATCH_WEBHOOK_ENDPOINT", ""),
			HTTPTimeoutSeconds:  getEnvAsInt("DISPATCH_HTTP_TIMEOUT_SECONDS", 10),
		},
		Triage: TriageConfig{
			MaxRetries:         getEnvAsInt("TRIAGE_MAX_RETRIES", 3),
			BackoffSeconds:     getEnvAsInt("TRIAGE_BACKOFF_SECONDS", 1),
			MaxBackoffSeconds:  getEnvAsInt("TRIAGE_MAX_BACKOFF_SECONDS", 30),
			CooldownTTLSeconds: getEnvAsInt("TRIAGE_COOLDOWN_TTL_SECONDS", 60),
		},
		Jobs: JobsConfig{
			Workers:             getEnvAsInt("JOBS_WORKERS", 4),
			QueueMaxRetries:     getEnvAsInt("JOBS_QUEUE_MAX_RETRIES", 3),
			RetryDelaySeconds:   getEnvAsInt("JOBS_RETRY_DELAY_SECONDS", 5),
			ForceFailTTLMinutes: getEnvAsInt("JOBS_FORCE_FAIL_TTL_MINUTES", 10),
			SweepCronSpec:       getEnv("JOBS_SWEEP_CRON_SPEC", "@every 30s"),
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

// Lookback returns the clustering lookback window.
func (c ClusteringConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// Window returns the surge window duration.
func (s SurgeConfig) Window() time.Duration {
	return time.Duration(s.WindowSeconds) * time.Second
}

// RetryBackoff returns the dispatch retry delay.
func (d DispatchConfig) RetryBackoff() time.Duration {
	return time.Duration(d.RetryBackoffSeconds) * time.Second
}

// HTTPTimeout returns the webhook adapter request timeout.
func (d DispatchConfig) HTTPTimeout() time.Duration {
	return time.Duration(d.HTTPTimeoutSeconds) * time.Second
}

// CooldownTTL returns how long a rate-limit cooldown stays armed.
func (t TriageConfig) CooldownTTL() time.Duration {
	return time.Duration(t.CooldownTTLSeconds) * time.Second
}

// ForceFailTTL returns the force-fail switch lifetime.
func (j JobsConfig) ForceFailTTL() time.Duration {
	return time.Duration(j.ForceFailTTLMinutes) * time.Minute
}

// RetryDelay returns the queue's fixed retry delay.
func (j JobsConfig) RetryDelay() time.Duration {
	return time.Duration(j.RetryDelaySeconds) * time.Second
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

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
