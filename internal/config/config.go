package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr    string
	FilesDir      string
	PublicBaseURL string
	CORSOrigins   []string

	YtDlpBinary  string
	FFmpegBinary string

	JobTimeout        time.Duration
	MaxConcurrentJobs int
	RestrictToYouTube bool

	FileRetention     time.Duration
	RetentionInterval time.Duration

	DBDriver    string
	DatabaseURL string
	BcryptCost  int

	S3Bucket               string
	S3Region               string
	S3Key                  string
	S3Secret               string
	S3Endpoint             string
	S3UsePathStyleEndpoint bool
	S3Prefix               string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file plus environment variables and returns
// normalized runtime config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		FilesDir:      getEnv("FILES_DIR", "./files"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"*"}),

		YtDlpBinary:  getEnv("YTDLP_BIN", "yt-dlp"),
		FFmpegBinary: getEnv("FFMPEG_BIN", "ffmpeg"),

		JobTimeout:        getEnvDuration("JOB_TIMEOUT", 0),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 0),
		RestrictToYouTube: getEnvBool("RESTRICT_TO_YOUTUBE", false),

		FileRetention:     getEnvDuration("FILE_RETENTION", 0),
		RetentionInterval: getEnvDuration("RETENTION_INTERVAL", 10*time.Minute),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: databaseURL(),
		BcryptCost:  getEnvInt("BCRYPT_COST", 10),

		S3Bucket:               strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:               getEnv("S3_REGION", "us-east-1"),
		S3Key:                  os.Getenv("S3_KEY"),
		S3Secret:               os.Getenv("S3_SECRET"),
		S3Endpoint:             strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3UsePathStyleEndpoint: getEnvBool("S3_USE_PATH_STYLE_ENDPOINT", false),
		S3Prefix:               strings.TrimSpace(os.Getenv("S3_PREFIX")),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
}

// databaseURL prefers DATABASE_URL and otherwise composes a postgres DSN
// from the DB_* parts. Empty means registration is disabled.
func databaseURL() string {
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", host, getEnvInt("DB_PORT", 5432)),
		Path:     "/" + getEnv("DB_NAME", "tubeconv"),
		RawQuery: "sslmode=" + url.QueryEscape(getEnv("DB_SSLMODE", "disable")),
	}
	if user := os.Getenv("DB_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("DB_PASSWORD"))
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return out
}

// getEnvDuration accepts Go durations ("90s", "24h") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
