// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "standalone", cfg.Role)
	assert.Equal(t, 200, cfg.Console.MaxMessages)
	assert.Equal(t, []string{"admin"}, cfg.Console.NoEcho)
	assert.True(t, cfg.Security.EnforcePermissions)
	assert.Equal(t, 5.0, cfg.Server.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Server.RequestBurst)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown role",
			modify:  func(c *Config) { c.Role = "observer" },
			wantErr: "role",
		},
		{
			name:    "zero capacity",
			modify:  func(c *Config) { c.Console.MaxMessages = 0 },
			wantErr: "console.max_messages",
		},
		{
			name:    "negative rate",
			modify:  func(c *Config) { c.Server.RequestsPerSecond = -1 },
			wantErr: "server.requests_per_second",
		},
		{
			name: "rate without burst",
			modify: func(c *Config) {
				c.Server.RequestsPerSecond = 2
				c.Server.RequestBurst = 0
			},
			wantErr: "server.request_burst",
		},
		{
			name: "unlimited rate ignores burst",
			modify: func(c *Config) {
				c.Server.RequestsPerSecond = 0
				c.Server.RequestBurst = 0
			},
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
		{
			name:   "log level is case insensitive",
			modify: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Role = "nope"
	cfg.Logging.Level = "nope"

	err := cfg.Validate()
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
role = "server"

[console]
verbose = true

[server]
permissions_file = "perms.toml"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Role)
	assert.True(t, cfg.Console.Verbose)
	assert.Equal(t, "perms.toml", cfg.Server.PermissionsFile)
	assert.Equal(t, 200, cfg.Console.MaxMessages)
	assert.Equal(t, 10, cfg.Server.RequestBurst)
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[console]\nmax_mesages = 5\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_mesages")
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[console]\nmax_messages = -3\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Role = "client"
	cfg.Console.NoEcho = []string{"admin", "login"}
	cfg.Logging.Development = true
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DEBUGCONSOLE_ROLE", "SERVER")
	t.Setenv("DEBUGCONSOLE_VERBOSE", "1")
	t.Setenv("DEBUGCONSOLE_ENFORCE_PERMISSIONS", "false")
	t.Setenv("DEBUGCONSOLE_PERMISSIONS_FILE", "/tmp/perms.toml")
	t.Setenv("DEBUGCONSOLE_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "server", cfg.Role)
	assert.True(t, cfg.Console.Verbose)
	assert.False(t, cfg.Security.EnforcePermissions)
	assert.Equal(t, "/tmp/perms.toml", cfg.Server.PermissionsFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvOverrides_IgnoresGarbageBool(t *testing.T) {
	t.Setenv("DEBUGCONSOLE_ENFORCE_PERMISSIONS", "maybe")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.True(t, cfg.Security.EnforcePermissions)
}

func TestLoad_UsesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir, err := ConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("role = \"client\"\n"), 0600))

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "client", cfg.Role)
}
