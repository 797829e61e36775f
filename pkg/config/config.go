package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DB DBConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RoomLockTTL   time.Duration
	RoomLockWait  time.Duration

	CORSOrigins     []string
	DefaultPageSize int
}

type DBConfig struct {
	Driver        string
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	DSN           string
	Retries       int
	RetryInterval time.Duration
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Env:      getEnv("APP_ENV", "prod"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "postgres"),
			User:     getEnv("DB_USER", "program"),
			Password: getEnv("DB_PASSWORD", "test"),
			Name:     getEnv("DB_NAME", "reservations"),
			DSN:      os.Getenv("DB_DSN"),
		},
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CORSOrigins:   parseList(getEnv("CORS_ORIGINS", "*")),
	}

	cfg.DB.Port = getEnv("DB_PORT", defaultDBPort(cfg.DB.Driver))

	var err error
	if cfg.DB.Retries, err = getInt("DB_CONNECT_RETRIES", 10); err != nil {
		return Config{}, err
	}
	if cfg.DB.RetryInterval, err = getDuration("DB_RETRY_INTERVAL", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RoomLockTTL, err = getDuration("ROOM_LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RoomLockWait, err = getDuration("ROOM_LOCK_WAIT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPageSize, err = getInt("DEFAULT_PAGE_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPageSize <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", cfg.DefaultPageSize)
	}

	switch cfg.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func defaultDBPort(driver string) string {
	if driver == "mysql" {
		return "3306"
	}
	return "5432"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, value)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
