package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	BaseURL     string
	LogLevel    string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	Storage StorageConfig
	Profile ProfileConfig

	SessionCacheTTL time.Duration
}

type StorageConfig struct {
	MaxImageBytes int64
	OrphanBlobTTL time.Duration
}

// ProfileConfig holds the values seeded into a profile the first time a user is seen.
type ProfileConfig struct {
	DefaultRole       string
	DefaultSchoolCode string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		Storage: StorageConfig{
			MaxImageBytes: getInt64("MAX_IMAGE_BYTES", 5<<20),
			OrphanBlobTTL: getDuration("ORPHAN_BLOB_TTL", time.Hour),
		},
		Profile: ProfileConfig{
			DefaultRole:       getEnv("DEFAULT_ROLE", "ADMIN"),
			DefaultSchoolCode: getEnv("DEFAULT_SCHOOL_CODE", "default"),
		},

		SessionCacheTTL: getDuration("SESSION_CACHE_TTL", time.Minute),
	}

	cfg.Profile.DefaultRole = strings.ToUpper(strings.TrimSpace(cfg.Profile.DefaultRole))
	if !models.IsValidRole(cfg.Profile.DefaultRole) {
		return nil, fmt.Errorf("invalid DEFAULT_ROLE %q, expected one of %s",
			cfg.Profile.DefaultRole, strings.Join(models.AllRoles, ", "))
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
