// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the debug console host.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/debugconsole/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete console host configuration.
type Config struct {
	Version string `toml:"version"`

	// Role is "standalone", "client" or "server"
	Role string `toml:"role"`

	Console  ConsoleConfig  `toml:"console"`
	Security SecurityConfig `toml:"security"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ConsoleConfig contains message log and input settings.
type ConsoleConfig struct {
	// MaxMessages is the message log capacity
	MaxMessages int `toml:"max_messages"`
	// NoEcho lists commands whose input line is not echoed (e.g. passwords)
	NoEcho []string `toml:"no_echo"`
	// Verbose enables debug-severity console messages
	Verbose bool `toml:"verbose"`
	// HistoryFile stores terminal input history (empty = ~/.debugconsole/history)
	HistoryFile string `toml:"history_file"`
}

// SecurityConfig contains permission settings.
type SecurityConfig struct {
	// EnforcePermissions makes client consoles check the local console
	// permission before relaying. Disable only for trusted debug setups.
	EnforcePermissions bool `toml:"enforce_permissions"`
}

// ServerConfig contains settings used when acting as the authority.
type ServerConfig struct {
	// RequestsPerSecond limits console commands per requester (0 = unlimited)
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// RequestBurst is the number of commands allowed in a burst
	RequestBurst int `toml:"request_burst"`
	// PermissionsFile is the TOML requester permission store
	PermissionsFile string `toml:"permissions_file"`
	// WatchPermissions reloads the permission store when the file changes
	WatchPermissions bool `toml:"watch_permissions"`
}

// LoggingConfig contains diagnostic logger settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level"`
	// Development switches to human-readable console encoding
	Development bool `toml:"development"`
	// OutputPath is where diagnostics go (empty = stderr)
	OutputPath string `toml:"output_path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Role:    "standalone",

		Console: ConsoleConfig{
			MaxMessages: 200,
			NoEcho:      []string{"admin"},
			Verbose:     false,
		},

		Security: SecurityConfig{
			EnforcePermissions: true,
		},

		Server: ServerConfig{
			RequestsPerSecond: 5,
			RequestBurst:      10,
			WatchPermissions:  true,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".debugconsole"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the default config file if it exists, otherwise defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file. Keys missing
// from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# debug console configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	validRoles := map[string]bool{"standalone": true, "client": true, "server": true}
	if !validRoles[c.Role] {
		errs = append(errs, ValidationError{
			Field:   "role",
			Message: fmt.Sprintf("invalid role '%s', must be one of: standalone, client, server", c.Role),
		})
	}

	if c.Console.MaxMessages < 1 || c.Console.MaxMessages > 100000 {
		errs = append(errs, ValidationError{
			Field:   "console.max_messages",
			Message: fmt.Sprintf("must be between 1 and 100000, got %d", c.Console.MaxMessages),
		})
	}

	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.requests_per_second",
			Message: "must not be negative",
		})
	}
	if c.Server.RequestsPerSecond > 0 && c.Server.RequestBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.request_burst",
			Message: "must be at least 1 when rate limiting is enabled",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var verrs ValidateErrors
	return errors.As(err, &verrs)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DEBUGCONSOLE_ROLE: overrides role
//   - DEBUGCONSOLE_VERBOSE: "1" or "true" enables verbose console output
//   - DEBUGCONSOLE_ENFORCE_PERMISSIONS: "0" or "false" disables local enforcement
//   - DEBUGCONSOLE_PERMISSIONS_FILE: overrides server.permissions_file
//   - DEBUGCONSOLE_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if role := os.Getenv("DEBUGCONSOLE_ROLE"); role != "" {
		c.Role = strings.ToLower(role)
	}
	if v, ok := envBool("DEBUGCONSOLE_VERBOSE"); ok {
		c.Console.Verbose = v
	}
	if v, ok := envBool("DEBUGCONSOLE_ENFORCE_PERMISSIONS"); ok {
		c.Security.EnforcePermissions = v
	}
	if path := os.Getenv("DEBUGCONSOLE_PERMISSIONS_FILE"); path != "" {
		c.Server.PermissionsFile = path
	}
	if level := os.Getenv("DEBUGCONSOLE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// envBool reads a boolean environment variable; ok is false when unset or
// unparsable.
func envBool(key string) (value, ok bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, false
	}
	return v, true
}
