package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration marks configuration that must abort startup.
var ErrConfiguration = errors.New("configuration error")

// SupportedAlgorithms lists the HMAC signing algorithms accepted for access tokens.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Model
		Audit
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		SecretKey  string
		Algorithm  string
		TokenTTL   time.Duration
		BcryptCost int
		// HashWorkers bounds concurrent bcrypt operations; 0 means runtime.NumCPU().
		HashWorkers int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Model struct {
		Path string // JSON artifact with the trained coefficients
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// loadDotEnv reads KEY=VALUE pairs from the env file into the process
// environment. Variables that are already set win over the file.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARNING: failed to read %s: %v", path, err)
		}
		return
	}
	log.Printf("Loaded environment from %s", path)
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("env_file", ".env")

	loadDotEnv(v.GetString("ENV_FILE"))

	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("model_path", DefaultModelPath)

	// Auth defaults. SECRET_KEY intentionally has none.
	v.SetDefault("algorithm", "HS256")
	v.SetDefault("access_token_expire_minutes", 30)
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_hash_workers", 0)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Audit retention
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SecretKey:        v.GetString("SECRET_KEY"),
			Algorithm:        strings.ToUpper(strings.TrimSpace(v.GetString("ALGORITHM"))),
			TokenTTL:         time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			HashWorkers:      v.GetInt("AUTH_HASH_WORKERS"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Model: Model{
			Path: v.GetString("MODEL_PATH"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

// Validate reports settings the server cannot start with. There is no
// fallback secret: an unset SECRET_KEY is fatal.
func (c *Config) Validate() error {
	return c.Auth.Validate()
}

// Validate checks the token signing settings.
func (a Auth) Validate() error {
	if strings.TrimSpace(a.SecretKey) == "" {
		return fmt.Errorf("%w: SECRET_KEY is required", ErrConfiguration)
	}
	if !isSupportedAlgorithm(a.Algorithm) {
		return fmt.Errorf("%w: unsupported ALGORITHM %q (want one of %s)",
			ErrConfiguration, a.Algorithm, strings.Join(SupportedAlgorithms, ", "))
	}
	if a.TokenTTL <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_EXPIRE_MINUTES must be positive", ErrConfiguration)
	}
	return nil
}

func isSupportedAlgorithm(alg string) bool {
	for _, supported := range SupportedAlgorithms {
		if alg == supported {
			return true
		}
	}
	return false
}
