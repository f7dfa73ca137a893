package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	CORSOrigins []string
	LogLevel    string

	RequestTimeout time.Duration

	// Passcode gate. Off by default; the feedback bank is open for
	// grading sessions on a trusted network.
	EnableEditorAuth   bool
	EditorPasscodeHash string // bcrypt
	AuthHMACSecret     string
	EditorTokenTTL     time.Duration

	// Base URL used by the client subcommands (list, search, lock).
	APIBaseURL string

	// Directory for `feedbackd export` snapshots.
	SnapshotDir string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:       strings.ToLower(envOr("LOG_LEVEL", "info")),
		RequestTimeout: durationOr("REQUEST_TIMEOUT", 30*time.Second),

		EnableEditorAuth:   envBool("ENABLE_EDITOR_AUTH", false),
		EditorPasscodeHash: os.Getenv("EDITOR_PASSCODE_HASH"),
		AuthHMACSecret:     envOr("AUTH_HMAC_SECRET", "feedbackbank-dev-key"),
		EditorTokenTTL:     durationOr("EDITOR_TOKEN_TTL", 8*time.Hour),

		APIBaseURL:  strings.TrimSuffix(envOr("API_BASE_URL", "http://localhost:8080"), "/"),
		SnapshotDir: envOr("SNAPSHOT_DIR", "./data/snapshots"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func durationOr(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
