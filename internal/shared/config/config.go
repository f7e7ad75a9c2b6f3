package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxImageBytes  = 10 << 20
	defaultWizardTTL      = 2 * time.Hour
	defaultBackendTimeout = 30 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port                 string
	CORSAllowOrigin      []string
	Env                  string
	BackendBaseURL       string
	BackendTimeout       time.Duration
	MaxImageBytes        int64
	WizardTTL            time.Duration
	ReferenceCatalogPath string
	DatabaseURL          string
	ObjectStoreType      string
	LocalStoreDir        string
	AWSRegion            string
	S3Bucket             string
	S3Prefix             string
	SSEKMSKeyID          string
	DevBackendPort       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	backendURL := strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8090"), "/")

	if env == "production" && os.Getenv("BACKEND_BASE_URL") == "" {
		log.Printf("BACKEND_BASE_URL is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                  env,
		BackendBaseURL:       backendURL,
		BackendTimeout:       getDuration("BACKEND_TIMEOUT", defaultBackendTimeout),
		MaxImageBytes:        getInt64("MAX_IMAGE_BYTES", defaultMaxImageBytes),
		WizardTTL:            getDuration("WIZARD_TTL", defaultWizardTTL),
		ReferenceCatalogPath: getEnv("REFERENCE_CATALOG_PATH", ""),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		ObjectStoreType:      normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:            getEnv("AWS_REGION", ""),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Prefix:             getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:          getEnv("SSE_KMS_KEY_ID", ""),
		DevBackendPort:       getEnv("DEVBACKEND_PORT", "8090"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
