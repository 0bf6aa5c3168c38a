package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	JWT         JWTConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	RateLimiter RateLimiterConfig
	Bulkhead    BulkheadConfig
	Gemini      GeminiConfig
	Dispatch    DispatchConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type PostgresConfig struct {
	URL      string // DATABASE_URL takes precedence if set
	Host     string
	Port     int
	User     string
	Password string
	DB       string
	SSLMode  string
}

type RedisConfig struct {
	URL      string // REDIS_URL takes precedence if set
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimiterConfig struct {
	MaxRequests   int
	WindowSeconds int
}

type BulkheadConfig struct {
	HeartbeatPool int
	MutationPool  int
	AdminPool     int
}

type GeminiConfig struct {
	BaseURL          string
	APIKey           string
	Model            string
	TimeoutSeconds   int
	FailureThreshold int
	CooldownSeconds  int
}

type DispatchConfig struct {
	EtaMinutesPerKM      float64
	ReserveRetries       int
	LocationCacheTTLSec  int
	IdempotencyTTLSec    int
	SweepIntervalSeconds int
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvInt("PORT", getenvInt("SERVER_PORT", 8080)),
			ShutdownTimeout: time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getenv("JWT_SECRET", "default-secret-change-me"),
			ExpiryHours: time.Duration(getenvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		},
		Postgres: PostgresConfig{
			URL:      getenv("DATABASE_URL", ""),
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenvInt("POSTGRES_PORT", 5432),
			User:     getenv("POSTGRES_USER", "lifeline_admin"),
			Password: getenv("POSTGRES_PASSWORD", "secure_password"),
			DB:       getenv("POSTGRES_DB", "lifeline"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getenv("REDIS_URL", ""),
			Host:     getenv("REDIS_HOST", "localhost"),
			Port:     getenvInt("REDIS_PORT", 6379),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		RateLimiter: RateLimiterConfig{
			MaxRequests:   getenvInt("RATE_LIMIT_MAX_REQUESTS", 100),
			WindowSeconds: getenvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Bulkhead: BulkheadConfig{
			HeartbeatPool: getenvInt("BULKHEAD_HEARTBEAT_POOL", 100),
			MutationPool:  getenvInt("BULKHEAD_MUTATION_POOL", 50),
			AdminPool:     getenvInt("BULKHEAD_ADMIN_POOL", 20),
		},
		Gemini: GeminiConfig{
			BaseURL:          getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:           getenv("GEMINI_API_KEY", ""),
			Model:            getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			TimeoutSeconds:   getenvInt("GEMINI_TIMEOUT_SECONDS", 5),
			FailureThreshold: getenvInt("GEMINI_FAILURE_THRESHOLD", 5),
			CooldownSeconds:  getenvInt("GEMINI_COOLDOWN_SECONDS", 30),
		},
		Dispatch: DispatchConfig{
			EtaMinutesPerKM:      getenvFloat("DISPATCH_ETA_MINUTES_PER_KM", 2),
			ReserveRetries:       getenvInt("DISPATCH_RESERVE_RETRIES", 3),
			LocationCacheTTLSec:  getenvInt("AMBULANCE_LOCATION_CACHE_TTL_SECONDS", 60),
			IdempotencyTTLSec:    getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
			SweepIntervalSeconds: getenvInt("DISPATCH_SWEEP_INTERVAL_SECONDS", 120),
		},
	}

	return cfg, nil
}

func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
