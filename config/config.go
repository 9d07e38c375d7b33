package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/connorjcantrell/dbpool/logger"
	"github.com/connorjcantrell/dbpool/pool"
)

// Config represents the full pool configuration
type Config struct {
	Factory FactoryConfig `yaml:"factory"`
	Pool    PoolConfig    `yaml:"pool"`
	Logging LoggingConfig `yaml:"logging"`
}

// FactoryConfig selects the backing store
type FactoryConfig struct {
	Driver string `yaml:"driver"` // mysql | postgres | sqlite3
	DSN    string `yaml:"dsn"`
}

// PoolConfig represents pool sizing and timing settings
type PoolConfig struct {
	MaxSize                     int `yaml:"max_size"`
	CheckoutTimeoutSeconds      int `yaml:"checkout_timeout_seconds"`
	HealthCheckThresholdSeconds int `yaml:"health_check_threshold_seconds"`
	MaxIdleLifetimeSeconds      int `yaml:"max_idle_lifetime_seconds"`
	SweepIntervalSeconds        int `yaml:"sweep_interval_seconds"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // silent | error | warn | info
	Format string `yaml:"format"` // text | json
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Factory: FactoryConfig{
			Driver: "sqlite3",
			DSN:    "file:dbpool.db",
		},
		Pool: PoolConfig{
			MaxSize:                     10,
			CheckoutTimeoutSeconds:      3,
			HealthCheckThresholdSeconds: 30,
			MaxIdleLifetimeSeconds:      300,
			SweepIntervalSeconds:        60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(config *Config) {
	if driver := os.Getenv("DBPOOL_DRIVER"); driver != "" {
		config.Factory.Driver = driver
	}

	if dsn := os.Getenv("DBPOOL_DSN"); dsn != "" {
		config.Factory.DSN = dsn
	}

	if maxSize := os.Getenv("DBPOOL_MAX_SIZE"); maxSize != "" {
		if val, err := strconv.Atoi(maxSize); err == nil {
			config.Pool.MaxSize = val
		}
	}

	if timeout := os.Getenv("DBPOOL_CHECKOUT_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil {
			config.Pool.CheckoutTimeoutSeconds = val
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Factory.Driver == "" {
		return fmt.Errorf("factory driver cannot be empty")
	}

	if c.Factory.DSN == "" {
		return fmt.Errorf("factory dsn cannot be empty")
	}

	if c.Pool.MaxSize < 1 {
		return fmt.Errorf("pool max size must be at least 1")
	}

	if c.Pool.CheckoutTimeoutSeconds < 0 ||
		c.Pool.HealthCheckThresholdSeconds < 0 ||
		c.Pool.MaxIdleLifetimeSeconds < 0 ||
		c.Pool.SweepIntervalSeconds < 0 {
		return fmt.Errorf("pool durations cannot be negative")
	}

	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != string(logger.LogFormatText) && c.Logging.Format != string(logger.LogFormatJSON) {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// PoolConfig converts the file representation into a pool.Config
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		MaxSize:              c.Pool.MaxSize,
		CheckoutTimeout:      time.Duration(c.Pool.CheckoutTimeoutSeconds) * time.Second,
		HealthCheckThreshold: time.Duration(c.Pool.HealthCheckThresholdSeconds) * time.Second,
		MaxIdleLifetime:      time.Duration(c.Pool.MaxIdleLifetimeSeconds) * time.Second,
		SweepInterval:        time.Duration(c.Pool.SweepIntervalSeconds) * time.Second,
	}
}

// NewLogger builds a logger configured per the logging section
func (c *Config) NewLogger() logger.Logger {
	l := logger.NewStdLogger()
	if level, ok := logger.ParseLevel(c.Logging.Level); ok {
		l.SetLevel(level)
	}
	l.SetFormat(logger.LogFormat(c.Logging.Format))
	return l
}

// String returns a string representation of the configuration (for logging)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Driver: %s, MaxSize: %d, CheckoutTimeout: %ds, LogLevel: %s}",
		c.Factory.Driver, c.Pool.MaxSize, c.Pool.CheckoutTimeoutSeconds, c.Logging.Level)
}
