// Package config provides configuration management for the seat ledger.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like STORE_DRIVER, LEDGER_ADMIN_IDENTITY)
// 3. Default values
//
// Import Path: seatledger.io/ledger/internal/config
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverBadger   = "badger"
	StoreDriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORS
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// StoreConfig selects the ledger backend.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"` // memory, badger or postgres
	BadgerDir string `mapstructure:"badger_dir"`
}

// DatabaseConfig contains PostgreSQL connection settings for the postgres driver.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LedgerConfig holds the ledger rules.
type LedgerConfig struct {
	// AdminIdentity is the store admin. Empty disables admin rights.
	AdminIdentity    string `mapstructure:"admin_identity"`
	MaxCodesPerEvent int    `mapstructure:"max_codes_per_event"`
	CodeBytes        int    `mapstructure:"code_bytes"`
	MintAttempts     int    `mapstructure:"mint_attempts"`
	UniqueEventNames bool   `mapstructure:"unique_event_names"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	DispatchPoolSize int `mapstructure:"dispatch_pool_size"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
// Nested keys map to env names: ledger.admin_identity → LEDGER_ADMIN_IDENTITY.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/seat-ledger")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverPostgres:
	case StoreDriverBadger:
		if strings.TrimSpace(c.Store.BadgerDir) == "" {
			return fmt.Errorf("store.badger_dir is required for the badger driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not one of memory, badger, postgres", c.Store.Driver)
	}
	if c.Ledger.MaxCodesPerEvent <= 0 {
		return fmt.Errorf("ledger.max_codes_per_event must be positive")
	}
	if c.Ledger.MintAttempts <= 0 {
		return fmt.Errorf("ledger.mint_attempts must be positive")
	}
	if c.Ledger.CodeBytes < 3 || c.Ledger.CodeBytes > 32 {
		return fmt.Errorf("ledger.code_bytes must be between 3 and 32")
	}
	if c.Worker.DispatchPoolSize <= 0 {
		return fmt.Errorf("worker.dispatch_pool_size must be positive")
	}
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key must not be empty")
	}
	if len(c.Auth.SigningKey) < 32 {
		return fmt.Errorf("auth.signing_key must be at least 32 characters")
	}
	return nil
}

// ensureSecrets auto-generates a signing key when none is configured.
// Tokens signed with a generated key do not survive a restart.
func (c *Config) ensureSecrets() error {
	if c.Auth.SigningKey == "" {
		key, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate signing key: %w", err)
		}
		c.Auth.SigningKey = key
		logBootstrapWarn(
			"auto-generated auth.signing_key; set AUTH_SIGNING_KEY env var for persistence",
			zap.Int("length", len(key)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Store
	v.SetDefault("store.driver", StoreDriverBadger)
	v.SetDefault("store.badger_dir", "./data/ledger")

	// Database (postgres driver only)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ledger")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", true)

	// Ledger
	v.SetDefault("ledger.admin_identity", "")
	v.SetDefault("ledger.max_codes_per_event", 100)
	v.SetDefault("ledger.code_bytes", 8)
	v.SetDefault("ledger.mint_attempts", 16)
	v.SetDefault("ledger.unique_event_names", true)

	// Auth
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.issuer", "seat-ledger")
	v.SetDefault("auth.token_ttl", "24h")

	// Worker Pool
	v.SetDefault("worker.dispatch_pool_size", 16)
}
