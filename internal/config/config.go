package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	// DBPath is only used by the sqlite driver
	DBPath string

	DBConnectAttempts int
	DBConnectBackoff  time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	Timezone *time.Location

	PermissionMapPath string
	BaseURL           string
	Port              string
	GinMode           string
	LogLevel          string

	TokenRateLimit float64
	TokenRateBurst int
}

// Load reads the process configuration once at startup. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tz, err := time.LoadLocation(getEnv("SHOP_TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_TIMEZONE: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	backoff, err := time.ParseDuration(getEnv("DB_CONNECT_BACKOFF", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_BACKOFF: %w", err)
	}

	attempts, err := strconv.Atoi(getEnv("DB_CONNECT_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		return nil, fmt.Errorf("invalid DB_CONNECT_ATTEMPTS %q", os.Getenv("DB_CONNECT_ATTEMPTS"))
	}

	rateLimit, err := strconv.ParseFloat(getEnv("TOKEN_RATE_LIMIT", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_RATE_LIMIT: %w", err)
	}
	rateBurst, err := strconv.Atoi(getEnv("TOKEN_RATE_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_RATE_BURST: %w", err)
	}

	return &Config{
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "lunch"),
		DBPassword:        getEnv("DB_PASSWORD", "lunchpassword"),
		DBName:            getEnv("DB_NAME", "lunch_order"),
		DBPath:            getEnv("DB_PATH", "lunch_order.db"),
		DBConnectAttempts: attempts,
		DBConnectBackoff:  backoff,
		JWTSecret:         getEnv("JWT_SECRET", "default-secret-key-change-me"),
		TokenTTL:          ttl,
		Timezone:          tz,
		PermissionMapPath: getEnv("PERMISSION_MAP_PATH", "config/permissions.yaml"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		TokenRateLimit:    rateLimit,
		TokenRateBurst:    rateBurst,
	}, nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
