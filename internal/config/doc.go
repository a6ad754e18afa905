// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// R3KON GPT desktop shell.
//
// TOML configuration with sensible defaults, environment variable
// overrides, and validation. The file is optional.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Local HTTP API settings
//   - ModelConfig: Model file location
//   - EngineConfig: llama-server launch parameters
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (REKON_*)
//   - REKON_CONFIG path, or ~/.rekon/config.toml
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
//	model := cfg.Model.Filename
//	threads := cfg.Engine.Threads
package config
