// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// R3KON GPT desktop shell.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. The file is optional: a missing config is not an error, and
// every field has a working default.
//
// Configuration file locations (in order of precedence):
//   - REKON_CONFIG environment variable
//   - ~/.rekon/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/rekon-gpt/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete application configuration.
type Config struct {
	Version string `toml:"version"`

	// API server configuration
	Server ServerConfig `toml:"server"`

	// Model file configuration
	Model ModelConfig `toml:"model"`

	// Inference engine configuration
	Engine EngineConfig `toml:"engine"`
}

// ServerConfig contains the local HTTP API configuration.
type ServerConfig struct {
	// Host the API binds to. Loopback only; the API is a process-local
	// surface for the embedded browser page, not a network service.
	Host string `toml:"host"`
	// Port the API listens on. 0 means pick a free ephemeral port.
	Port int `toml:"port"`
	// RateLimitRPS is the sustained per-client request rate.
	RateLimitRPS float64 `toml:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `toml:"rate_limit_burst"`
	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// ModelConfig identifies the GGUF model file.
type ModelConfig struct {
	// Filename of the quantized model.
	Filename string `toml:"filename"`
	// InstallDir is the primary directory probed for the model file.
	// Empty means the executable's directory.
	InstallDir string `toml:"install_dir"`
}

// EngineConfig contains llama-server launch parameters.
type EngineConfig struct {
	// Binary is the llama-server executable name or path.
	Binary string `toml:"binary"`
	// Port the inference server listens on (loopback only).
	Port int `toml:"port"`
	// ContextSize is the model context window in tokens.
	ContextSize int `toml:"context_size"`
	// Threads is the CPU thread count for inference.
	Threads int `toml:"threads"`
	// BatchSize is the prompt-evaluation batch size.
	BatchSize int `toml:"batch_size"`
	// UseMlock locks model weights in RAM.
	UseMlock bool `toml:"use_mlock"`
	// UseMmap memory-maps the model file.
	UseMmap bool `toml:"use_mmap"`
	// StartupTimeoutSecs bounds how long startup waits for the model load.
	StartupTimeoutSecs int `toml:"startup_timeout_secs"`
	// RequestTimeoutSecs bounds a single completion request.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
			MaxBodyBytes:   1 << 20, // 1 MB
		},
		Model: ModelConfig{
			Filename: "qwen1.5-1.8b-chat-q4_k_m.gguf",
		},
		Engine: EngineConfig{
			Binary:             "llama-server",
			Port:               8181,
			ContextSize:        3072,
			Threads:            8,
			BatchSize:          512,
			UseMlock:           true,
			UseMmap:            true,
			StartupTimeoutSecs: 120,
			RequestTimeoutSecs: 120,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the configuration directory (~/.rekon).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rekon"), nil
}

// ConfigPath returns the path to the TOML config file, honoring the
// REKON_CONFIG override.
func ConfigPath() (string, error) {
	if path := os.Getenv("REKON_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last, then the
// result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
			fillDefaults(cfg)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. A partial config
// file overriding one field must not zero the rest.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}

	if cfg.Model.Filename == "" {
		cfg.Model.Filename = defaults.Model.Filename
	}

	if cfg.Engine.Binary == "" {
		cfg.Engine.Binary = defaults.Engine.Binary
	}
	if cfg.Engine.Port == 0 {
		cfg.Engine.Port = defaults.Engine.Port
	}
	if cfg.Engine.ContextSize == 0 {
		cfg.Engine.ContextSize = defaults.Engine.ContextSize
	}
	if cfg.Engine.Threads == 0 {
		cfg.Engine.Threads = defaults.Engine.Threads
	}
	if cfg.Engine.BatchSize == 0 {
		cfg.Engine.BatchSize = defaults.Engine.BatchSize
	}
	if cfg.Engine.StartupTimeoutSecs == 0 {
		cfg.Engine.StartupTimeoutSecs = defaults.Engine.StartupTimeoutSecs
	}
	if cfg.Engine.RequestTimeoutSecs == 0 {
		cfg.Engine.RequestTimeoutSecs = defaults.Engine.RequestTimeoutSecs
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file atomically with
// owner-only permissions.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# R3KON GPT configuration file")
	fmt.Fprintln(&buf, "# Generated - edit with care")
	fmt.Fprintln(&buf, "")

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

// Validate clamps invalid values back to their defaults. A typo'd config
// must never keep the desktop app from starting, so recoverable mistakes
// are logged and corrected instead of rejected.
func (c *Config) Validate() error {
	defaults := Default()

	clamp := func(field string) {
		log.Printf("CONFIG_CLAMPED | field=%s reason=out_of_range", field)
	}

	// The API is a process-local surface; anything but loopback is a
	// misconfiguration, not a choice.
	if c.Server.Host != "127.0.0.1" && c.Server.Host != "localhost" {
		clamp("server.host")
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		clamp("server.port")
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.RateLimitRPS <= 0 {
		clamp("server.rate_limit_rps")
		c.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if c.Server.RateLimitBurst < 1 {
		clamp("server.rate_limit_burst")
		c.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if c.Server.MaxBodyBytes < 1024 {
		clamp("server.max_body_bytes")
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}

	if c.Model.Filename == "" {
		clamp("model.filename")
		c.Model.Filename = defaults.Model.Filename
	}

	if c.Engine.Port < 1 || c.Engine.Port > 65535 {
		clamp("engine.port")
		c.Engine.Port = defaults.Engine.Port
	}
	if c.Engine.ContextSize < 512 {
		clamp("engine.context_size")
		c.Engine.ContextSize = defaults.Engine.ContextSize
	}
	if c.Engine.Threads < 1 {
		clamp("engine.threads")
		c.Engine.Threads = defaults.Engine.Threads
	}
	if c.Engine.BatchSize < 1 {
		clamp("engine.batch_size")
		c.Engine.BatchSize = defaults.Engine.BatchSize
	}
	if c.Engine.StartupTimeoutSecs < 1 {
		clamp("engine.startup_timeout_secs")
		c.Engine.StartupTimeoutSecs = defaults.Engine.StartupTimeoutSecs
	}
	if c.Engine.RequestTimeoutSecs < 1 {
		clamp("engine.request_timeout_secs")
		c.Engine.RequestTimeoutSecs = defaults.Engine.RequestTimeoutSecs
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies REKON_* environment variables over the loaded
// configuration. Malformed values are ignored rather than fatal.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("REKON_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("REKON_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REKON_MODEL_FILE"); v != "" {
		c.Model.Filename = v
	}
	if v := os.Getenv("REKON_INSTALL_DIR"); v != "" {
		c.Model.InstallDir = v
	}
	if v := os.Getenv("REKON_ENGINE_BINARY"); v != "" {
		c.Engine.Binary = v
	}
	if v := os.Getenv("REKON_ENGINE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Engine.Port = port
		}
	}
	if v := os.Getenv("REKON_ENGINE_THREADS"); v != "" {
		if threads, err := strconv.Atoi(v); err == nil {
			c.Engine.Threads = threads
		}
	}
}
