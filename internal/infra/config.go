package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment
// variables. It is built once at process start and passed down explicitly;
// nothing reads the environment at call time.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RenderBaseURL    string
	PDFTimeout       time.Duration
	TemplateDir      string
	BillingBaseURL   string
	BillingAPIKey    string
	ArchiveDir       string
	GeoIPDBPath      string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL, BILLING_BASE_URL, ARCHIVE_DIR and
// GEOIP_DB_PATH are optional; the service degrades gracefully without them.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RenderBaseURL:    getEnv("RENDER_BASE_URL", "http://localhost:3000"),
		PDFTimeout:       time.Second * time.Duration(getEnvInt("PDF_TIMEOUT_SECONDS", 30)),
		TemplateDir:      getEnv("TEMPLATE_DIR", "templates"),
		BillingBaseURL:   os.Getenv("BILLING_BASE_URL"),
		BillingAPIKey:    os.Getenv("BILLING_API_KEY"),
		ArchiveDir:       os.Getenv("ARCHIVE_DIR"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:      splitCSV(os.Getenv("CORS_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.PDFTimeout <= 0 {
		return nil, fmt.Errorf("PDF_TIMEOUT_SECONDS must be positive")
	}
	if cfg.RenderBaseURL == "" {
		return nil, fmt.Errorf("RENDER_BASE_URL is required")
	}

	return cfg, nil
}

// TemplatePath is the primary template lookup location; the compositor
// falls back to the in-repo assets copy when it is absent.
func (c *Config) TemplatePath() string {
	return filepath.Join(c.TemplateDir, "report_template.html")
}

// Debug reports whether error detail may be exposed to clients. Never true
// outside development, regardless of query flags.
func (c *Config) Debug() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
