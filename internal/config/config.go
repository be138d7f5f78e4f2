package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the router, read from environment
// variables. The declarative objects (models, rules, workflows, keys) live
// in YAML files under ConfigDir; see load.go.
type Config struct {
	HTTPPort  string
	ConfigDir string

	JWTSecret     []byte
	AdminUsername string
	// Bcrypt hash produced by cmd/genkey. Empty disables the admin surface.
	AdminPasswordHash string
	AdminTokenTTL     time.Duration

	// Requests per minute per API key. Zero disables rate limiting.
	RateLimitPerMinute int

	// MemoryBackend selects the memory store: "memory" or "redis".
	MemoryBackend string

	Backend   BackendConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Benchmark BenchmarkConfig
}

// BackendConfig holds model-backend client settings.
type BackendConfig struct {
	RequestTimeout time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds Postgres settings for benchmark persistence. An
// empty URL disables persistence; records then stop at the Redis buffer or
// are discarded entirely.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// BenchmarkConfig holds benchmark pipeline settings.
type BenchmarkConfig struct {
	// Enabled turns on the Redis buffer; without it records are dropped.
	Enabled       bool
	QueueKey      string
	MaxSize       int64
	BatchSize     int
	FlushInterval time.Duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvInt64(key string, defaultValue int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:  getEnvString("HTTP_PORT", "8080"),
		ConfigDir: getEnvString("CONFIG_DIR", "config"),

		JWTSecret:         []byte(getEnvString("JWT_SECRET", "")),
		AdminUsername:     getEnvString("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnvString("ADMIN_PASSWORD_HASH", ""),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 15*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
		MemoryBackend:      getEnvString("MEMORY_BACKEND", "memory"),

		Backend: BackendConfig{
			RequestTimeout: getEnvDuration("BACKEND_REQUEST_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", ""),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnvString("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Benchmark: BenchmarkConfig{
			Enabled:       getEnvBool("BENCHMARK_ENABLED", false),
			QueueKey:      getEnvString("BENCHMARK_QUEUE_KEY", "router:benchmarks"),
			MaxSize:       getEnvInt64("BENCHMARK_MAX_SIZE", 100_000),
			BatchSize:     getEnvInt("BENCHMARK_BATCH_SIZE", 500),
			FlushInterval: getEnvDuration("BENCHMARK_FLUSH_INTERVAL", 30*time.Second),
		},
	}

	if cfg.MemoryBackend != "memory" && cfg.MemoryBackend != "redis" {
		return nil, fmt.Errorf("MEMORY_BACKEND must be \"memory\" or \"redis\", got %q", cfg.MemoryBackend)
	}
	needsRedis := cfg.MemoryBackend == "redis" || cfg.Benchmark.Enabled || cfg.RateLimitPerMinute > 0
	if needsRedis && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("REDIS_ADDRESS is required when redis-backed features are enabled")
	}
	if cfg.AdminPasswordHash != "" && len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is required when the admin surface is enabled")
	}

	return cfg, nil
}
