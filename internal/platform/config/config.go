package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. main loads it once from the
// environment and passes slices of it down; packages never read env vars
// themselves.
type Config struct {
	Addr          string
	Environment   string // "development" or "production"
	JWTSigningKey string
	JWTTokenTTL   time.Duration

	DatabaseURL string

	Redis RedisConfig

	Kafka KafkaConfig

	Vault VaultConfig

	// SubmitRateLimit caps citizen submissions per caller per window.
	// Zero disables the limiter.
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

// RedisConfig configures the optional redis client. Empty URL means redis is
// not configured and dependent features (rate limiting) are disabled.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event publisher. Empty Brokers means audit
// events stay in the outbox and are not shipped anywhere.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// VaultConfig configures the S3-backed file vault. Empty Bucket selects the
// in-memory vault (dev/tests only).
type VaultConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	URLTTL       time.Duration
	MaxUploadLen int64
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("BARANGAYLINK_ADDR", ":8080"),
		Environment:   envOr("BARANGAYLINK_ENV", "development"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTTokenTTL:   envDuration("JWT_TOKEN_TTL", 24*time.Hour),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("KAFKA_AUDIT_TOPIC", "barangaylink.audit"),
		},
		Vault: VaultConfig{
			Bucket:       os.Getenv("S3_BUCKET"),
			Region:       envOr("S3_REGION", "ap-southeast-1"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			URLTTL:       envDuration("S3_URL_TTL", 15*time.Minute),
			MaxUploadLen: envInt64("UPLOAD_MAX_BYTES", 10<<20),
		},
		SubmitRateLimit:  envInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: envDuration("SUBMIT_RATE_WINDOW", time.Minute),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

// IsProduction reports whether diagnostic detail should be suppressed.
func (c Config) IsProduction() bool { return c.Environment == "production" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
