package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// JWT configuration
	JWT JWTConfig `yaml:"jwt"`

	// NASA APOD API configuration
	NASA NASAConfig `yaml:"nasa"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Redis configuration, used when Cache.Backend is "redis"
	Redis RedisConfig `yaml:"redis"`

	// Email configuration
	Email EmailConfig `yaml:"email"`

	// CORS configuration
	CORS CORSConfig `yaml:"cors"`

	// Log configuration
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Environment     string        `yaml:"environment"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL           string        `yaml:"url"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	SSLMode       string        `yaml:"ssl_mode"`
	MaxConns      int32         `yaml:"max_conns"`
	MinConns      int32         `yaml:"min_conns"`
	MaxLifetime   time.Duration `yaml:"max_lifetime"`
	ConnTimeout   time.Duration `yaml:"conn_timeout"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
	RunMigrations bool          `yaml:"run_migrations"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret         string        `yaml:"secret"`
	Issuer         string        `yaml:"issuer"`
	Audience       string        `yaml:"audience"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	ResetTokenTTL  time.Duration `yaml:"reset_token_ttl"`
}

// NASAConfig holds settings for the APOD API and the apod.nasa.gov archive
type NASAConfig struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	ArchiveURL       string        `yaml:"archive_url"`
	Timeout          time.Duration `yaml:"timeout"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RateLimitPerHour int           `yaml:"rate_limit_per_hour"`
}

// CacheConfig holds cache-aside configuration
type CacheConfig struct {
	Backend         string        `yaml:"backend"` // memory | redis
	APODTTL         time.Duration `yaml:"apod_ttl"`
	CalendarTTL     time.Duration `yaml:"calendar_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SMTPProviderSettings describes one named SMTP provider
type SMTPProviderSettings struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	UseSSL bool   `yaml:"use_ssl"`
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	SMTPHost       string                          `yaml:"smtp_host"`
	SMTPPort       string                          `yaml:"smtp_port"`
	SMTPUsername   string                          `yaml:"smtp_username"`
	SMTPPassword   string                          `yaml:"smtp_password"`
	FromEmail      string                          `yaml:"from_email"`
	FromName       string                          `yaml:"from_name"`
	UseTLS         bool                            `yaml:"use_tls"`
	UseSSL         bool                            `yaml:"use_ssl"`
	ActiveProvider string                          `yaml:"active_provider"`
	Providers      map[string]SMTPProviderSettings `yaml:"providers"`
	FrontendURL    string                          `yaml:"frontend_url"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// Configuration errors
var (
	ErrMissingRequired     = errors.New("missing required configuration")
	ErrInvalidCacheBackend = errors.New("invalid cache backend: must be memory or redis")
	ErrInvalidLogLevel     = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat    = errors.New("invalid log format: must be json or text")
)

// Default returns a Config populated with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Environment:     "development",
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          "5432",
			User:          "postgres",
			Name:          "astrotracker",
			SSLMode:       "disable",
			MaxConns:      5,
			MinConns:      0,
			MaxLifetime:   time.Hour,
			ConnTimeout:   10 * time.Second,
			QueryTimeout:  30 * time.Second,
			RunMigrations: true,
		},
		JWT: JWTConfig{
			Secret:         defaultJWTSecret,
			Issuer:         "AstroTrackerAPI",
			Audience:       "AstroTrackerClient",
			AccessTokenTTL: 60 * time.Minute,
			ResetTokenTTL:  time.Hour,
		},
		NASA: NASAConfig{
			BaseURL:          "https://api.nasa.gov/",
			APIKey:           "DEMO_KEY",
			ArchiveURL:       "https://apod.nasa.gov/apod/",
			Timeout:          30 * time.Second,
			RetryAttempts:    3,
			RetryDelay:       5 * time.Second,
			RateLimitPerHour: 1000,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			APODTTL:         time.Hour,
			CalendarTTL:     12 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "astrotracker:",
		},
		Email: EmailConfig{
			SMTPHost:    "smtp.gmail.com",
			SMTPPort:    "587",
			FromName:    "Astronomy Tracker",
			UseTLS:      true,
			FrontendURL: "http://localhost:4200",
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the optional app settings file and then
// from environment variables, which take precedence.
func Load() (*Config, error) {
	// Load .env file
	if err := godotenv.Load("../.env"); err != nil {
		// Try loading from current directory if not found in parent
		if err := godotenv.Load(".env"); err != nil {
			slog.Debug(".env file not found", "error", err)
		}
	}

	config := Default()
	if path := getEnv("APP_SETTINGS_FILE", ""); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}
	config.applyEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read app settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse app settings %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Environment = getEnv("APP_ENV", c.Server.Environment)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getDurationEnv("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxConns = getInt32Env("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getInt32Env("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxLifetime = getDurationEnv("DB_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.ConnTimeout = getDurationEnv("DB_CONN_TIMEOUT", c.Database.ConnTimeout)
	c.Database.QueryTimeout = getDurationEnv("DB_QUERY_TIMEOUT", c.Database.QueryTimeout)
	c.Database.RunMigrations = getBoolEnv("DB_RUN_MIGRATIONS", c.Database.RunMigrations)

	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.Issuer = getEnv("JWT_ISSUER", c.JWT.Issuer)
	c.JWT.Audience = getEnv("JWT_AUDIENCE", c.JWT.Audience)
	c.JWT.AccessTokenTTL = getDurationEnv("JWT_ACCESS_TTL", c.JWT.AccessTokenTTL)
	c.JWT.ResetTokenTTL = getDurationEnv("JWT_RESET_TTL", c.JWT.ResetTokenTTL)

	c.NASA.BaseURL = getEnv("NASA_API_BASE_URL", c.NASA.BaseURL)
	c.NASA.APIKey = getEnv("NASA_API_KEY", c.NASA.APIKey)
	c.NASA.ArchiveURL = getEnv("NASA_ARCHIVE_URL", c.NASA.ArchiveURL)
	c.NASA.Timeout = getDurationEnv("NASA_API_TIMEOUT", c.NASA.Timeout)
	c.NASA.RetryAttempts = getIntEnv("NASA_API_RETRY_ATTEMPTS", c.NASA.RetryAttempts)
	c.NASA.RetryDelay = getDurationEnv("NASA_API_RETRY_DELAY", c.NASA.RetryDelay)
	c.NASA.RateLimitPerHour = getIntEnv("NASA_API_RATE_LIMIT_PER_HOUR", c.NASA.RateLimitPerHour)

	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.APODTTL = getDurationEnv("CACHE_APOD_TTL", c.Cache.APODTTL)
	c.Cache.CalendarTTL = getDurationEnv("CACHE_CALENDAR_TTL", c.Cache.CalendarTTL)
	c.Cache.CleanupInterval = getDurationEnv("CACHE_CLEANUP_INTERVAL", c.Cache.CleanupInterval)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntEnv("REDIS_DB", c.Redis.DB)
	c.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", c.Redis.KeyPrefix)

	c.Email.SMTPHost = getEnv("SMTP_HOST", c.Email.SMTPHost)
	c.Email.SMTPPort = getEnv("SMTP_PORT", c.Email.SMTPPort)
	c.Email.SMTPUsername = getEnv("SMTP_USERNAME", c.Email.SMTPUsername)
	c.Email.SMTPPassword = getEnv("SMTP_PASSWORD", c.Email.SMTPPassword)
	c.Email.FromEmail = getEnv("EMAIL_FROM", c.Email.FromEmail)
	c.Email.FromName = getEnv("EMAIL_FROM_NAME", c.Email.FromName)
	c.Email.UseTLS = getBoolEnv("SMTP_USE_TLS", c.Email.UseTLS)
	c.Email.UseSSL = getBoolEnv("SMTP_USE_SSL", c.Email.UseSSL)
	c.Email.ActiveProvider = getEnv("SMTP_ACTIVE_PROVIDER", c.Email.ActiveProvider)
	c.Email.FrontendURL = getEnv("FRONTEND_URL", c.Email.FrontendURL)

	c.CORS.AllowedOrigins = getStringSliceEnv("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedMethods = getStringSliceEnv("CORS_ALLOWED_METHODS", c.CORS.AllowedMethods)
	c.CORS.AllowedHeaders = getStringSliceEnv("CORS_ALLOWED_HEADERS", c.CORS.AllowedHeaders)
	c.CORS.AllowCredentials = getBoolEnv("CORS_ALLOW_CREDENTIALS", c.CORS.AllowCredentials)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("%w: DB_PASSWORD or DATABASE_URL", ErrMissingRequired)
	}

	if c.JWT.Secret == "" || (c.IsProduction() && c.JWT.Secret == defaultJWTSecret) {
		return fmt.Errorf("%w: JWT_SECRET", ErrMissingRequired)
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return ErrInvalidCacheBackend
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return ErrInvalidLogFormat
	}

	if c.Email.ActiveProvider != "" {
		if _, ok := c.Email.Providers[c.Email.ActiveProvider]; !ok {
			return fmt.Errorf("%w: smtp provider %q is not defined", ErrMissingRequired, c.Email.ActiveProvider)
		}
	}

	return nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&connect_timeout=%d",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
		int(c.Database.ConnTimeout.Seconds()),
	)
}

// SMTPServer returns host, port and SSL mode, preferring the active provider
func (c *EmailConfig) SMTPServer() (host, port string, useSSL bool) {
	if p, ok := c.Providers[c.ActiveProvider]; ok && c.ActiveProvider != "" {
		return p.Host, p.Port, p.UseSSL
	}
	return c.SMTPHost, c.SMTPPort, c.UseSSL
}

// IsEmailConfigured checks if email service is properly configured
func (c *Config) IsEmailConfigured() bool {
	return c.Email.SMTPUsername != "" && c.Email.SMTPPassword != ""
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt32Env(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intValue)
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
