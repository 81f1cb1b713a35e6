package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// defaultCORSOrigins are the local frontend dev servers
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3001",
}

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	// Service role key, used only by quizctl to look up users. Never served.
	SupabaseServiceKey string
	CORSOrigins        []string
	TablePrefix        string
	PDFBucket          string
	MaxUploadBytes     int64
	// Logging
	LogDir      string // empty = stdout only
	LogMaxFiles int
}

// LoadEnvFiles reads .env and then .env.local, whose values win.
// Missing files are ignored - production sets real environment variables.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	return &Config{
		Port:               getEnv("PORT", "8000"),
		Environment:        env,
		SupabaseURL:        supabaseURL,
		SupabaseKey:        getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:      getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:    supabaseURL + "/auth/v1/.well-known/jwks.json",
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		CORSOrigins:        corsOrigins(getEnv("CORS_ORIGINS", ""), getEnv("FRONTEND_URL", "")),
		TablePrefix:        getTablePrefix(env),
		PDFBucket:          getEnv("PDF_BUCKET", "pdfs"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        getEnvInt("LOG_MAX_FILES", 10),
	}
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.SupabaseKey == "" {
		errs = append(errs, errors.New("SUPABASE_KEY is required"))
	}
	if c.SupabaseDBURL == "" {
		errs = append(errs, errors.New("SUPABASE_DB_URL is required"))
	}
	switch c.Environment {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be dev, test or prod, got %q", c.Environment))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

// corsOrigins combines the configured (or default) origins with the frontend URL
func corsOrigins(configured, frontendURL string) []string {
	origins := defaultCORSOrigins
	if configured != "" {
		origins = nil
		for _, o := range strings.Split(configured, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	result := append([]string(nil), origins...)
	if frontendURL != "" {
		frontendURL = strings.TrimRight(frontendURL, "/")
		for _, o := range result {
			if o == frontendURL {
				return result
			}
		}
		result = append(result, frontendURL)
	}
	return result
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
