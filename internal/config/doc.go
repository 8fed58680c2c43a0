// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for guru.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - GeminiConfig: Model, endpoint and sampling settings
//   - AuthConfig: Google sign-in client and readiness bounds
//   - StorageConfig: Persistence backend and directory
//   - Watcher: Live reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GEMINI_API_KEY, GURU_*)
//   - ~/.guru/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Gemini.Model
//	timeout := cfg.Timeout()
package config
