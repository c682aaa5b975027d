// Package config provides configuration management for stratplan.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Calculation CalculationConfig `toml:"calculation"`
	Server      ServerConfig      `toml:"server"`
	Display     DisplayConfig     `toml:"display"`
	Logging     LoggingConfig     `toml:"logging"`
	Database    DatabaseConfig    `toml:"database"`
}

// CalculationConfig controls the feasibility calculation engine.
type CalculationConfig struct {
	// ExcludeDoNotTouch is the policy default applied when a request does not
	// say whether do-not-touch warehouses count towards availability.
	ExcludeDoNotTouch bool `toml:"exclude_do_not_touch"`

	// MaxParallelism bounds the BOM/inventory fan-out within one run.
	MaxParallelism int `toml:"max_parallelism"`

	// NotesPrefix is prepended to the auto-generated calculation notes.
	NotesPrefix string `toml:"notes_prefix"`

	// ExpiryWarningDays is the horizon used by expiring-lot scans.
	ExpiryWarningDays int `toml:"expiry_warning_days"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr                string `toml:"addr"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
	Debug               bool   `toml:"debug"`
}

// ReadTimeout returns the read timeout as a duration.
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
	TimeFormat  string      `toml:"time_format"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeGreenPhosphor ColorScheme = "green_phosphor"
	ColorSchemeAmber         ColorScheme = "amber"
	ColorSchemeWhite         ColorScheme = "white"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path                string `toml:"path"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Calculation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("calculation: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the calculation configuration is valid.
func (c *CalculationConfig) Validate() error {
	var errs []error

	if c.MaxParallelism < 1 {
		errs = append(errs, errors.New("max_parallelism must be at least 1"))
	}

	if c.ExpiryWarningDays < 0 {
		errs = append(errs, errors.New("expiry_warning_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	if s.ReadTimeoutSeconds < 0 {
		errs = append(errs, errors.New("read_timeout_seconds must be non-negative"))
	}

	if s.WriteTimeoutSeconds < 0 {
		errs = append(errs, errors.New("write_timeout_seconds must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	validSchemes := map[ColorScheme]bool{
		ColorSchemeGreenPhosphor: true,
		ColorSchemeAmber:         true,
		ColorSchemeWhite:         true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		return fmt.Errorf("invalid color_scheme: %s", d.ColorScheme)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Calculation: CalculationConfig{
			ExcludeDoNotTouch: false,
			MaxParallelism:    4,
			NotesPrefix:       "Automatic feasibility calculation",
			ExpiryWarningDays: 30,
		},
		Server: ServerConfig{
			Addr:                "127.0.0.1:8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeGreenPhosphor,
			DateFormat:  "2006-01-02",
			TimeFormat:  "15:04:05",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/stratplan.log",
		},
		Database: DatabaseConfig{
			Path:                "stratplan.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
	}
}
