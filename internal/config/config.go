package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	RateStoreMemory = "memory"
	RateStoreRedis  = "redis"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	DBURL            string
	DBMaxConns       int32
	DBMaxConnIdle    time.Duration
	DBConnectTimeout time.Duration
	StoreDriver      string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	RateLimitWindow time.Duration
	RateLimitMax    int
	RateLimitStore  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string
	TrustedProxies []string
	MaxBodyBytes   int64

	AdminEmail    string
	AdminPassword string
	AdminName     string

	OTLPEndpoint string
}

// dev-only fallback so `go run ./cmd/api` works without a .env file.
const devJWTSecret = "storefront-dev-secret-change-me"

func Load() Config {
	// a missing .env file is fine, real deployments use the environment
	_ = godotenv.Load()

	env := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))

	logLevel := "info"
	if env == EnvDevelopment {
		logLevel = "debug"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && env != EnvProduction {
		jwtSecret = devJWTSecret
	}

	return Config{
		Env:      env,
		Port:     getEnvInt("PORT", 3000),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", logLevel)),

		DBURL:            getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:       int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMaxConnIdle:    getEnvDuration("DB_MAX_CONN_IDLE", 30*time.Second),
		DBConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 2*time.Second),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		JWTSecret:  jwtSecret,
		JWTTTL:     getEnvDuration("JWT_TTL", 7*24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitStore:  strings.ToLower(getEnv("RATE_LIMIT_STORE", RateStoreMemory)),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AllowedOrigins: CSV(os.Getenv("ALLOWED_ORIGINS")),
		TrustedProxies: CSV(os.Getenv("TRUSTED_PROXIES")),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),

		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of development, production, test (got %q)", c.Env))
	}

	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres or memory (got %q)", c.StoreDriver))
	}

	switch c.RateLimitStore {
	case RateStoreMemory, RateStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE must be memory or redis (got %q)", c.RateLimitStore))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	if len(c.AdminPassword) > 72 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at most 72 bytes"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "storefront")
	pass := getEnv("DB_PASSWORD", "storefront")
	name := getEnv("DB_NAME", "storefront")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout derives a bounded context for a single storage call.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

// CSV splits a comma separated env value, dropping blanks.
func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}
