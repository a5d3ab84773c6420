package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Cache        CacheConfig
	Badge        BadgeConfig
	Notification NotificationConfig
	Scheduler    SchedulerConfig
	Logging      LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

// DatabaseConfig holds postgres connection settings
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	ConnectTimeout     time.Duration
	MaxConnectRetries  int
	SlowQueryThreshold time.Duration
	MigrationsPath     string
}

// CacheConfig holds cache provider settings
type CacheConfig struct {
	Provider      string // "memory", "redis"
	TTL           time.Duration
	RedisURL      string
	RedisDB       int
	RedisPassword string
	PoolSize      int
}

// BadgeConfig controls automatic badge awarding.
//
// The legacy code-based fallbacks (first attendance, check-in, repeat
// attendance) coexist with the badge rule table; both paths lean on the
// (participant, badge) uniqueness constraint to stay single-award.
type BadgeConfig struct {
	AutoRulesEnabled          bool
	FirstAttendanceCode       string
	CheckinCode               string
	RepeatAttendanceCode      string
	RepeatAttendanceThreshold int
}

// NotificationConfig holds outbound notification settings
type NotificationConfig struct {
	// Sender kind per channel: "mock" or "log"
	WechatSender string
	EmailSender  string
	SMSSender    string

	DispatchBatchSize int
	// MaxRetries bounds how many failed delivery attempts a log may
	// accumulate before dispatch stops re-selecting it.
	MaxRetries int
}

// SchedulerConfig holds maintenance task settings
type SchedulerConfig struct {
	DispatchInterval time.Duration
	MaxTasksPerRun   int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json", "console"
}

// Load reads configuration from the environment, with .env support outside production
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:       loadServerConfig(env),
		Database:     loadDatabaseConfig(),
		Cache:        loadCacheConfig(),
		Badge:        loadBadgeConfig(),
		Notification: loadNotificationConfig(),
		Scheduler:    loadSchedulerConfig(),
		Logging:      loadLoggingConfig(env),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	return ServerConfig{
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "9000"),
		Environment:     env,
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		GracefulTimeout: getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:                getEnv("DATABASE_URL", ""),
		MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime:    getDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		MaxConnectRetries:  getIntEnv("DB_MAX_CONNECT_RETRIES", 5),
		SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:      getEnv("CACHE_PROVIDER", "memory"),
		TTL:           getDurationEnv("CACHE_TTL", 15*time.Minute),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
	}
}

func loadBadgeConfig() BadgeConfig {
	return BadgeConfig{
		AutoRulesEnabled:          getBoolEnv("BADGE_AUTO_RULES_ENABLED", true),
		FirstAttendanceCode:       getEnv("BADGE_FIRST_ATTENDANCE_CODE", "first_attendance"),
		CheckinCode:               getEnv("BADGE_CHECKIN_CODE", "checkin_complete"),
		RepeatAttendanceCode:      getEnv("BADGE_REPEAT_ATTENDANCE_CODE", "repeat_attendance"),
		RepeatAttendanceThreshold: getIntEnv("BADGE_REPEAT_ATTENDANCE_THRESHOLD", 3),
	}
}

func loadNotificationConfig() NotificationConfig {
	return NotificationConfig{
		WechatSender:      getEnv("NOTIFICATION_SENDER_WECHAT", "mock"),
		EmailSender:       getEnv("NOTIFICATION_SENDER_EMAIL", "mock"),
		SMSSender:         getEnv("NOTIFICATION_SENDER_SMS", "mock"),
		DispatchBatchSize: getIntEnv("NOTIFICATION_DISPATCH_BATCH_SIZE", 100),
		MaxRetries:        getIntEnv("NOTIFICATION_MAX_RETRIES", 5),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DispatchInterval: getDurationEnv("SCHEDULER_DISPATCH_INTERVAL", time.Minute),
		MaxTasksPerRun:   getIntEnv("SCHEDULER_MAX_TASKS_PER_RUN", 0),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

// Validate checks that required configuration is present and consistent
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Cache.Provider != "memory" && c.Cache.Provider != "redis" {
		errs = append(errs, fmt.Sprintf("unsupported cache provider %q", c.Cache.Provider))
	}
	if c.Notification.DispatchBatchSize <= 0 {
		errs = append(errs, "NOTIFICATION_DISPATCH_BATCH_SIZE must be positive")
	}
	if c.Notification.MaxRetries < 0 {
		errs = append(errs, "NOTIFICATION_MAX_RETRIES must not be negative")
	}
	if c.Badge.RepeatAttendanceThreshold < 0 {
		errs = append(errs, "BADGE_REPEAT_ATTENDANCE_THRESHOLD must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ===============================
// ENV HELPERS
// ===============================

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
