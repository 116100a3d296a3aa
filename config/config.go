package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL   string
	ListURL   string
	UserAgent string

	DiscordWebhookURL string

	SeenDBDriver string // "sqlite" or "postgres"
	SeenDBPath   string // sqlite file path

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	PollInterval  time.Duration
	Jitter        time.Duration
	MisfireGrace  time.Duration
	FetchTimeout  time.Duration
	FetchAttempts int

	FetchMode string // "http" or "browser"
	ChromeBin string

	LogDebug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	base := getEnv("BASE_URL", "https://www.drspark.net")

	return &Config{
		BaseURL:   base,
		ListURL:   getEnv("LIST_URL", base+"/ski_sell2"),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (+alerts)"),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),

		SeenDBDriver: getEnv("SEEN_DB_DRIVER", "sqlite"),
		SeenDBPath:   getEnv("SEEN_DB_PATH", "./drspark_seen.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "watcher"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "watcher123"),
		PostgresDB:       getEnv("POSTGRES_DB", "drspark"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_SEC", 60)) * time.Second,
		Jitter:        time.Duration(getEnvInt("JITTER_SEC", 20)) * time.Second,
		MisfireGrace:  time.Duration(getEnvInt("MISFIRE_GRACE_SEC", 60)) * time.Second,
		FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_SEC", 15)) * time.Second,
		FetchAttempts: getEnvInt("FETCH_ATTEMPTS", 3),

		FetchMode: getEnv("FETCH_MODE", "http"),
		ChromeBin: getEnv("CHROME_BIN", ""),

		LogDebug: getEnvBool("LOG_DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string for the postgres seen store.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
