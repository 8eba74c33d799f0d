package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port        string
	DownloadDir string // Single flat directory shared by handlers and the sweeper

	YtDlpPath        string // Empty means resolve yt-dlp from PATH
	YtDlpAutoInstall bool
	FFmpegPath       string // Empty means resolve ffmpeg from PATH
	AudioQuality     string // e.g., "128K"
	CoverTimeout     time.Duration
	DomainMarker     string

	RetentionMaxAge   time.Duration
	RetentionInterval time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSize    int // megabytes
	LogMaxBackups int
	LogMaxAge     int // days

	// Redis (optional result cache)
	RedisEnabled   bool
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	ResultCacheTTL time.Duration
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvNonEmpty is getEnv for settings where a blank value is never meaningful.
func getEnvNonEmpty(key, fallback string) string {
	if value := strings.TrimSpace(getEnv(key, "")); value != "" {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "1h") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:        getEnv("PORT", "5000"),
		DownloadDir: getEnv("DOWNLOAD_DIR", "downloads"),

		YtDlpPath:        getEnv("YTDLP_PATH", ""),
		YtDlpAutoInstall: getEnvBool("YTDLP_AUTO_INSTALL", false),
		FFmpegPath:       getEnv("FFMPEG_PATH", ""),
		AudioQuality:     getEnv("AUDIO_QUALITY", "128K"), // lower than 192K for faster conversion
		CoverTimeout:     getEnvDuration("COVER_TIMEOUT", 5*time.Second),
		DomainMarker:     getEnvNonEmpty("DOMAIN_MARKER", "soundcloud.com"), // blank would accept any URL

		RetentionMaxAge:   getEnvDuration("RETENTION_MAX_AGE", time.Hour),
		RetentionInterval: getEnvDuration("RETENTION_INTERVAL", time.Hour),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 7),

		RedisEnabled:   getEnvBool("REDIS_ENABLED", false),
		RedisHost:      getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""), // empty means no auth
		RedisDB:        getEnvInt("REDIS_DB", 0),
		ResultCacheTTL: getEnvDuration("RESULT_CACHE_TTL", 50*time.Minute),
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
