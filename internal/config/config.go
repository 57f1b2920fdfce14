// Package config loads layered configuration and opens the storage handles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	BackendFile     = "file"
	BackendDatabase = "database"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// Quote route protection modes
	AccessOpen          = "open"
	AccessAuthenticated = "authenticated"
	AccessAdmin         = "admin"

	defaultConfigFile = "configs/config.yaml"
)

// Config is the full application configuration
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type AppConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"required"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

type StorageConfig struct {
	Backend  string `koanf:"backend" validate:"required,oneof=file database"`
	FilePath string `koanf:"file_path" validate:"required_if=Backend file"`
	Seed     bool   `koanf:"seed"`
}

type DatabaseConfig struct {
	Driver        string        `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Host          string        `koanf:"host"`
	Port          string        `koanf:"port"`
	User          string        `koanf:"user"`
	Password      string        `koanf:"password"`
	Name          string        `koanf:"name"`
	SSLMode       string        `koanf:"sslmode"`
	SQLitePath    string        `koanf:"sqlite_path"`
	MaxRetries    int           `koanf:"max_retries" validate:"gte=1"`
	RetryInterval time.Duration `koanf:"retry_interval" validate:"gte=0"`
}

type AuthConfig struct {
	Enabled            bool   `koanf:"enabled"`
	QuoteAccess        string `koanf:"quote_access" validate:"oneof=open authenticated admin"`
	JWTSecret          string `koanf:"jwt_secret" validate:"required_if=Enabled true"`
	JWTExpirationHours int64  `koanf:"jwt_expiration_hours" validate:"gt=0"`
	BcryptCost         int    `koanf:"bcrypt_cost" validate:"gte=4,lte=31"`
}

type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format     string `koanf:"format" validate:"oneof=json text pretty"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint" validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"gte=0,lte=1"`
}

// NeedsDatabase reports whether any component requires a relational store.
func (c *Config) NeedsDatabase() bool {
	return c.Storage.Backend == BackendDatabase || c.Auth.Enabled
}

// EffectiveQuoteAccess returns the quote protection mode; without auth every quote route is open.
func (c *Config) EffectiveQuoteAccess() string {
	if !c.Auth.Enabled {
		return AccessOpen
	}
	return c.Auth.QuoteAccess
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-api",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             "8080",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.shutdown_timeout": "5s",
		"server.max_body_bytes":   1 << 20,

		"storage.backend":   BackendFile,
		"storage.file_path": "quotes/quotes.json",
		"storage.seed":      false,

		"database.driver":         DriverPostgres,
		"database.host":           "localhost",
		"database.port":           "5432",
		"database.user":           "postgres",
		"database.password":       "",
		"database.name":           "quotes",
		"database.sslmode":        "disable",
		"database.sqlite_path":    "quotes.db",
		"database.max_retries":    5,
		"database.retry_interval": "5s",

		"auth.enabled":              true,
		"auth.quote_access":         AccessAdmin,
		"auth.jwt_secret":           "",
		"auth.jwt_expiration_hours": 24,
		"auth.bcrypt_cost":          10,

		"log.level":        "info",
		"log.format":       "json",
		"log.file":         "",
		"log.max_size_mb":  100,
		"log.max_backups":  3,
		"log.max_age_days": 28,
		"log.compress":     true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "localhost:4317",
		"telemetry.sampling_rate": 1.0,
	}
}

// envKeys maps environment variable names onto config keys.
var envKeys = map[string]string{
	"APP_NAME":                    "app.name",
	"APP_VERSION":                 "app.version",
	"APP_ENVIRONMENT":             "app.environment",
	"SERVER_PORT":                 "server.port",
	"SERVER_READ_TIMEOUT":         "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":        "server.write_timeout",
	"SERVER_SHUTDOWN_TIMEOUT":     "server.shutdown_timeout",
	"SERVER_MAX_BODY_BYTES":       "server.max_body_bytes",
	"STORAGE_BACKEND":             "storage.backend",
	"QUOTES_FILE":                 "storage.file_path",
	"SEED_QUOTES":                 "storage.seed",
	"DB_DRIVER":                   "database.driver",
	"DB_HOST":                     "database.host",
	"DB_PORT":                     "database.port",
	"DB_USER":                     "database.user",
	"DB_PASSWORD":                 "database.password",
	"DB_NAME":                     "database.name",
	"DB_SSLMODE":                  "database.sslmode",
	"DB_MAX_RETRIES":              "database.max_retries",
	"DB_RETRY_INTERVAL":           "database.retry_interval",
	"SQLITE_PATH":                 "database.sqlite_path",
	"AUTH_ENABLED":                "auth.enabled",
	"QUOTE_ACCESS":                "auth.quote_access",
	"JWT_SECRET_KEY":              "auth.jwt_secret",
	"JWT_EXPIRATION_HOURS":        "auth.jwt_expiration_hours",
	"BCRYPT_COST":                 "auth.bcrypt_cost",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"LOG_FILE":                    "log.file",
	"OTEL_ENABLED":                "telemetry.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "telemetry.endpoint",
	"OTEL_SAMPLING_RATE":          "telemetry.sampling_rate",
}

// Load builds the configuration from defaults, an optional YAML file,
// a .env file and the process environment, in increasing precedence.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if err := loadFileIfExists(k, path); err != nil {
		return nil, fmt.Errorf("loading config file %q: %w", path, err)
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[strings.ToUpper(s)]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Auth.QuoteAccess = strings.ToLower(cfg.Auth.QuoteAccess)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags and reports every failing field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
