package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigin  []string
	StoreBackend     string
	LocalStoreDir    string
	SnapshotKey      string
	DatabaseURL      string
	SQLitePath       string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	RedisURL         string
	ActivityStream   string
	CascadeRulesFile string
	SeedDemoData     bool
	StaleAfter       time.Duration
	DailyOpsInterval time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	backend := NormalizeBackend(getEnv("STORE_BACKEND", ""), dbURL)
	if env == "production" && backend == BackendMemory {
		log.Printf("STORE_BACKEND=memory loses all data on restart; configure a durable backend in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		StoreBackend:     backend,
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		SnapshotKey:      getEnv("SNAPSHOT_KEY", "hrms/snapshot.json"),
		DatabaseURL:      dbURL,
		SQLitePath:       getEnv("SQLITE_PATH", "./data/hrms.db"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		ActivityStream:   getEnv("ACTIVITY_STREAM", "hrms:activity"),
		CascadeRulesFile: getEnv("CASCADE_RULES_FILE", ""),
		SeedDemoData:     getBool("SEED_DEMO_DATA", env != "production"),
		StaleAfter:       getDuration("STALE_AFTER", 30*24*time.Hour),
		DailyOpsInterval: getDuration("DAILY_OPS_INTERVAL", 24*time.Hour),
		RateLimitRPS:     getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   getInt("RATE_LIMIT_BURST", 20),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

// getDuration accepts Go durations ("90m") and whole days ("30d").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return d
}

// ParseDuration extends time.ParseDuration with a day suffix.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// NormalizeBackend maps STORE_BACKEND aliases to a backend name and picks
// postgres when only DATABASE_URL is given.
func NormalizeBackend(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "memory", "mem":
		return BackendMemory
	case "file", "local", "json":
		return BackendFile
	case "s3":
		return BackendS3
	case "postgres", "pg", "postgresql":
		return BackendPostgres
	case "sqlite", "sqlite3":
		return BackendSQLite
	case "":
		if dbURL != "" {
			return BackendPostgres
		}
		return BackendFile
	default:
		log.Printf("unknown STORE_BACKEND=%q, using file", raw)
		return BackendFile
	}
}
