// Package config provides configuration management for relayd.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers for the message history store.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration sections for relayd.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"readTimeout"`     // in seconds
	WriteTimeout    int    `mapstructure:"writeTimeout"`    // in seconds
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"` // in seconds
}

// GatewayConfig holds WebSocket gateway configuration.
type GatewayConfig struct {
	// AllowedOrigins lists the Origin header values accepted during the
	// WebSocket upgrade. An empty list allows any origin (development mode).
	AllowedOrigins []string `mapstructure:"allowedOrigins"`

	// MaxMessageSize is the per-frame read limit in bytes.
	MaxMessageSize int64 `mapstructure:"maxMessageSize"`

	// SendBufferSize is the per-connection outbound queue length. When the
	// queue is full, further frames to that client are dropped.
	SendBufferSize int `mapstructure:"sendBufferSize"`
}

// DatabaseConfig holds message history store configuration.
type DatabaseConfig struct {
	// Driver selects the history backend: memory, sqlite or postgres.
	Driver string `mapstructure:"driver"`

	// Path is the SQLite database file (sqlite driver only).
	Path string `mapstructure:"path"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`

	// HistoryLimit caps how many messages the memory store retains and how
	// many a single history query may return.
	HistoryLimit int `mapstructure:"historyLimit"`
}

// NATSConfig holds NATS messaging configuration.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// ShutdownTimeoutDuration returns the shutdown timeout as a time.Duration.
func (s *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
// Returns "json" if running in Kubernetes or other production environments.
// Returns "text" for terminal/development use (human-readable console format).
func detectDefaultLogFormat() string {
	// Check if running in Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}

	// Check for explicit production environment
	if env := os.Getenv("RELAYD_ENV"); env == "production" || env == "prod" {
		return "json"
	}

	// Default to text format for terminal use (more readable than JSON)
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.shutdownTimeout", 30)

	// Gateway defaults - empty origin list accepts any origin
	v.SetDefault("gateway.allowedOrigins", []string{})
	v.SetDefault("gateway.maxMessageSize", 512*1024)
	v.SetDefault("gateway.sendBufferSize", 256)

	// Database defaults - sqlite keeps history across restarts without
	// requiring a server
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "./relayd.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "relayd")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "relayd")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)
	v.SetDefault("database.historyLimit", 1000)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "relayd")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix RELAYD_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory or /etc/relayd/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("RELAYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for snake_case env vars (camelCase config keys)
	// AutomaticEnv does not handle camelCase to SNAKE_CASE conversion,
	// so we explicitly bind keys where env var naming differs from config key naming.
	_ = v.BindEnv("gateway.allowedOrigins", "RELAYD_GATEWAY_ALLOWED_ORIGINS")
	_ = v.BindEnv("gateway.maxMessageSize", "RELAYD_GATEWAY_MAX_MESSAGE_SIZE")
	_ = v.BindEnv("gateway.sendBufferSize", "RELAYD_GATEWAY_SEND_BUFFER_SIZE")
	_ = v.BindEnv("database.dbName", "RELAYD_DATABASE_DB_NAME")
	_ = v.BindEnv("database.sslMode", "RELAYD_DATABASE_SSL_MODE")
	_ = v.BindEnv("database.maxConns", "RELAYD_DATABASE_MAX_CONNS")
	_ = v.BindEnv("database.minConns", "RELAYD_DATABASE_MIN_CONNS")
	_ = v.BindEnv("database.historyLimit", "RELAYD_DATABASE_HISTORY_LIMIT")
	_ = v.BindEnv("nats.clientId", "RELAYD_NATS_CLIENT_ID")
	_ = v.BindEnv("nats.maxReconnects", "RELAYD_NATS_MAX_RECONNECTS")

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/relayd/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
// In development mode (default), most fields are optional.
func validate(cfg *Config) error {
	var errs []string

	// Server validation - always required
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// Gateway validation
	if cfg.Gateway.MaxMessageSize <= 0 {
		errs = append(errs, "gateway.maxMessageSize must be positive")
	}
	if cfg.Gateway.SendBufferSize <= 0 {
		errs = append(errs, "gateway.sendBufferSize must be positive")
	}

	// Database validation depends on the selected driver
	switch strings.ToLower(cfg.Database.Driver) {
	case DriverMemory:
		// No backend settings needed
	case DriverSQLite:
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required when database.driver is sqlite")
		}
	case DriverPostgres:
		if cfg.Database.Host == "" {
			errs = append(errs, "database.host is required when database.driver is postgres")
		}
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required when database.driver is postgres")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required when database.driver is postgres")
		}
	default:
		errs = append(errs, "database.driver must be one of: memory, sqlite, postgres")
	}
	if cfg.Database.HistoryLimit <= 0 {
		errs = append(errs, "database.historyLimit must be positive")
	}

	// NATS validation - optional (uses in-memory event bus if not set)
	// No validation needed - empty URL means use in-memory

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
