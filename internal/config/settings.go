package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Resolver  ResolverConfig
	Session   SessionConfig
	Rendering RenderingConfig
	TLS       TLSConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Version     string
	Environment string // development, staging, production
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port   string
	Domain string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	HealthCheckPeriod time.Duration
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	ConnectTimeout    time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
}

// RedisConfig holds the shared cache and session backend settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ResolverConfig holds the page resolution settings
type ResolverConfig struct {
	RootPrefix               string
	MaxPathDepth             int
	MaxURLSegments           int
	PageNumPrefix            string
	MaxPageNum               int
	SecureFiles              bool
	FilesRoot                string
	ExtendedIDPaths          bool
	LegacyFilePrefix         string
	DisableSchemeEnforcement bool
	DelayRedirects           bool
	ComponentPrefix          string
	MaxComponentDepth        int
	NotFoundPageID           int64
	DisallowIDs              []int64
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// RenderingConfig holds template and secured-file directory settings
type RenderingConfig struct {
	TemplatesDir string
	FilesDir     string
}

// TLSConfig holds TLS/HTTPS certificate settings
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig(logger *slog.Logger) (*Config, error) {
	// Load .env file (ignore error if it doesn't exist)
	godotenv.Load()

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("loading application configuration")

	config := &Config{}

	loadAppConfig(&config.App, logger)

	if err := loadServerConfig(&config.Server, logger); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database, logger); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	loadRedisConfig(&config.Redis, logger)

	if err := loadResolverConfig(&config.Resolver, logger); err != nil {
		return nil, fmt.Errorf("failed to load resolver config: %w", err)
	}

	loadSessionConfig(&config.Session, logger)
	loadRenderingConfig(&config.Rendering, logger)
	loadTLSConfig(&config.TLS, logger)

	logger.Info("configuration loaded successfully",
		"environment", config.App.Environment,
		"version", config.App.Version,
		"port", config.Server.Port,
	)

	return config, nil
}

func loadAppConfig(cfg *AppConfig, logger *slog.Logger) {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "1.0.0"
		logger.Warn("VERSION not set, using default", "default", version)
	}
	cfg.Version = version

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
		logger.Warn("ENV not set, using default", "default", env)
	}
	cfg.Environment = env
}

func loadServerConfig(cfg *ServerConfig, logger *slog.Logger) error {
	port := os.Getenv("PORT")
	if port == "" {
		return fmt.Errorf("PORT environment variable is required")
	}
	cfg.Port = port

	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "localhost"
		logger.Warn("DOMAIN not set, using default", "default", domain)
	}
	cfg.Domain = domain

	return nil
}

func loadDatabaseConfig(cfg *DatabaseConfig, logger *slog.Logger) error {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return fmt.Errorf("DB_URL environment variable is required")
	}
	cfg.URL = dbURL

	cfg.MaxConns = getEnvAsInt32("DB_MAX_CONNS", 10)
	cfg.MinConns = getEnvAsInt32("DB_MIN_CONNS", 2)

	healthCheckSec := getEnvAsInt32("DB_HEALTH_CHECK_PERIOD_SECONDS", 60)
	cfg.HealthCheckPeriod = time.Duration(healthCheckSec) * time.Second

	maxLifetimeMin := getEnvAsInt32("DB_MAX_CONN_LIFETIME_MINUTES", 0)
	cfg.MaxConnLifetime = time.Duration(maxLifetimeMin) * time.Minute

	maxIdleMin := getEnvAsInt32("DB_MAX_CONN_IDLE_TIME_MINUTES", 0)
	cfg.MaxConnIdleTime = time.Duration(maxIdleMin) * time.Minute

	cfg.ConnectTimeout = 10 * time.Second
	cfg.MaxRetries = 3
	cfg.RetryDelay = 1 * time.Second

	logger.Debug("database config loaded",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)

	return nil
}

func loadRedisConfig(cfg *RedisConfig, logger *slog.Logger) {
	cfg.Addr = os.Getenv("REDIS_ADDR")
	cfg.Password = os.Getenv("REDIS_PASSWORD")
	cfg.DB = getEnvAsInt("REDIS_DB", 0)

	if cfg.Addr != "" {
		logger.Debug("redis config loaded", "addr", cfg.Addr, "db", cfg.DB)
	} else {
		logger.Warn("REDIS_ADDR not set, caching falls back to in-process memory")
	}
}

func loadResolverConfig(cfg *ResolverConfig, logger *slog.Logger) error {
	cfg.RootPrefix = os.Getenv("RESOLVER_ROOT_PREFIX")
	cfg.MaxPathDepth = getEnvAsInt("RESOLVER_MAX_PATH_DEPTH", 64)
	cfg.MaxURLSegments = getEnvAsInt("RESOLVER_MAX_URL_SEGMENTS", 4)

	cfg.PageNumPrefix = os.Getenv("RESOLVER_PAGE_NUM_PREFIX")
	if cfg.PageNumPrefix == "" {
		cfg.PageNumPrefix = "page"
	}
	cfg.MaxPageNum = getEnvAsInt("RESOLVER_MAX_PAGE_NUM", 999)

	cfg.SecureFiles = getEnvAsBool("RESOLVER_SECURE_FILES", true)
	cfg.FilesRoot = os.Getenv("RESOLVER_FILES_ROOT")
	if cfg.FilesRoot == "" {
		cfg.FilesRoot = "/site/assets/files"
	}
	cfg.ExtendedIDPaths = getEnvAsBool("RESOLVER_EXTENDED_ID_PATHS", false)
	cfg.LegacyFilePrefix = os.Getenv("RESOLVER_LEGACY_FILE_PREFIX")

	cfg.DisableSchemeEnforcement = getEnvAsBool("RESOLVER_DISABLE_SCHEME_ENFORCEMENT", false)
	cfg.DelayRedirects = getEnvAsBool("RESOLVER_DELAY_REDIRECTS", false)

	cfg.ComponentPrefix = os.Getenv("RESOLVER_COMPONENT_PREFIX")
	if cfg.ComponentPrefix == "" {
		cfg.ComponentPrefix = "component_"
	}
	cfg.MaxComponentDepth = getEnvAsInt("RESOLVER_MAX_COMPONENT_DEPTH", 8)

	cfg.NotFoundPageID = getEnvAsInt64("RESOLVER_NOT_FOUND_PAGE_ID", 0)

	if raw := os.Getenv("RESOLVER_DISALLOW_IDS"); raw != "" {
		for _, part := range splitAndTrim(raw, ",") {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return fmt.Errorf("RESOLVER_DISALLOW_IDS contains invalid id %q: %w", part, err)
			}
			cfg.DisallowIDs = append(cfg.DisallowIDs, id)
		}
	}

	logger.Debug("resolver config loaded",
		"max_url_segments", cfg.MaxURLSegments,
		"secure_files", cfg.SecureFiles,
		"not_found_page_id", cfg.NotFoundPageID,
	)

	return nil
}

func loadSessionConfig(cfg *SessionConfig, logger *slog.Logger) {
	cfg.CookieName = os.Getenv("SESSION_COOKIE_NAME")
	if cfg.CookieName == "" {
		cfg.CookieName = "content_session"
	}

	ttlHours := getEnvAsInt("SESSION_TTL_HOURS", 24)
	cfg.TTL = time.Duration(ttlHours) * time.Hour
}

func loadRenderingConfig(cfg *RenderingConfig, logger *slog.Logger) {
	cfg.TemplatesDir = os.Getenv("TEMPLATES_DIR")
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "web/templates"
		logger.Warn("TEMPLATES_DIR not set, using default", "default", cfg.TemplatesDir)
	}

	cfg.FilesDir = os.Getenv("FILES_DIR")
	if cfg.FilesDir == "" {
		cfg.FilesDir = "web/files"
		logger.Warn("FILES_DIR not set, using default", "default", cfg.FilesDir)
	}
}

func loadTLSConfig(cfg *TLSConfig, logger *slog.Logger) {
	certFile := os.Getenv("TLS_CERT_FILE")
	keyFile := os.Getenv("TLS_KEY_FILE")

	cfg.CertFile = certFile
	cfg.KeyFile = keyFile
	cfg.Enabled = certFile != "" && keyFile != ""

	if cfg.Enabled {
		logger.Info("TLS enabled", "cert_file", certFile, "key_file", keyFile)
	}
}

// Helper functions

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsInt32(key string, defaultVal int32) int32 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return int32(parsed)
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
