// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the debug console host.
//
// Configuration is TOML with built-in defaults, environment variable
// overrides and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ConsoleConfig: Message log and echo settings
//   - SecurityConfig: Local permission enforcement
//   - ServerConfig: Authority-side rate limits and permission store
//   - LoggingConfig: Diagnostic logger settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DEBUGCONSOLE_*)
//   - ~/.debugconsole/config.toml, or the path given to LoadFromPath
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	con := console.New(role, console.WithMaxMessages(cfg.Console.MaxMessages))
package config
