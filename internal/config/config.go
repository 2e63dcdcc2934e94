// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for omnichat.
//
// Configuration sources (in order of precedence):
//   - OMNICHAT_* environment variables
//   - ~/.omnichat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete omnichat configuration.
type Config struct {
	DefaultModel string `toml:"default_model"`

	Ollama  OllamaConfig  `toml:"ollama"`
	Search  SearchConfig  `toml:"search"`
	Turn    TurnConfig    `toml:"turn"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
}

// OllamaConfig contains local Ollama server settings.
type OllamaConfig struct {
	// URL is the Ollama server base URL.
	URL string `toml:"url"`
	// TimeoutSecs bounds non-streaming requests (list, health check).
	TimeoutSecs int `toml:"timeout_secs"`
}

// SearchConfig controls automatic web search.
type SearchConfig struct {
	// Enabled toggles keyword-triggered search for new sessions.
	Enabled bool `toml:"enabled"`
	// MaxResults caps how many DuckDuckGo results go into the prompt.
	MaxResults int `toml:"max_results"`
	// TimeoutSecs bounds one search request.
	TimeoutSecs int `toml:"timeout_secs"`
}

// TurnConfig controls streaming turn behavior.
type TurnConfig struct {
	// MaxChunks caps fragments yielded per turn before a forced stop.
	MaxChunks int `toml:"max_chunks"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// DBPath is the SQLite database location (empty = default).
	DBPath string `toml:"db_path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
	// ShowTokens displays tokens/sec after each response.
	ShowTokens bool `toml:"show_tokens"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DefaultModel: "qwen2.5:0.5b",

		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			TimeoutSecs: 30,
		},

		Search: SearchConfig{
			Enabled:     true,
			MaxResults:  3,
			TimeoutSecs: 10,
		},

		Turn: TurnConfig{
			MaxChunks: 2000,
		},

		Storage: StorageConfig{
			DBPath: "", // resolved to ~/.omnichat/chat_history.db
		},

		UI: UIConfig{
			Theme:      "dark",
			ShowTokens: true,
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the omnichat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".omnichat"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DBPath resolves the database location, honoring the config override.
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chat_history.db"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, applies env overrides, fills defaults, and
// validates. A missing file is not an error; defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadFile(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		} else if os.IsNotExist(statErr) {
			// First run: write the defaults so there is a file to edit.
			// Failure here is not fatal; the in-memory defaults still
			// apply.
			_ = Save(cfg)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes a TOML config file over cfg.
func LoadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// Save writes the configuration to the default TOML file with 0600
// permissions.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# omnichat configuration file")
	fmt.Fprintln(file, "# Generated by omnichat - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS + VALIDATION
// =============================================================================

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = defaults.Ollama.TimeoutSecs
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = defaults.Search.MaxResults
	}
	if c.Search.TimeoutSecs == 0 {
		c.Search.TimeoutSecs = defaults.Search.TimeoutSecs
	}
	if c.Turn.MaxChunks == 0 {
		c.Turn.MaxChunks = defaults.Turn.MaxChunks
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ValidationError is one configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Ollama.URL != "" {
		if _, err := url.Parse(c.Ollama.URL); err != nil {
			return ValidationError{Field: "ollama.url", Message: fmt.Sprintf("invalid URL: %v", err)}
		}
	}
	if c.Ollama.TimeoutSecs < 0 {
		return ValidationError{Field: "ollama.timeout_secs", Message: "must be non-negative"}
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		return ValidationError{Field: "search.max_results", Message: fmt.Sprintf("must be 1-10, got %d", c.Search.MaxResults)}
	}
	if c.Search.TimeoutSecs < 0 {
		return ValidationError{Field: "search.timeout_secs", Message: "must be non-negative"}
	}
	if c.Turn.MaxChunks < 1 {
		return ValidationError{Field: "turn.max_chunks", Message: fmt.Sprintf("must be positive, got %d", c.Turn.MaxChunks)}
	}
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		return ValidationError{Field: "ui.theme", Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - OMNICHAT_MODEL: overrides default_model
//   - OMNICHAT_OLLAMA_URL: overrides ollama.url
//   - OMNICHAT_DB_PATH: overrides storage.db_path
//   - OMNICHAT_NO_SEARCH: set to "1" or "true" to disable auto search
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("OMNICHAT_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if url := os.Getenv("OMNICHAT_OLLAMA_URL"); url != "" {
		c.Ollama.URL = url
	}
	if path := os.Getenv("OMNICHAT_DB_PATH"); path != "" {
		c.Storage.DBPath = path
	}
	if noSearch := os.Getenv("OMNICHAT_NO_SEARCH"); noSearch != "" {
		if noSearch == "1" || strings.EqualFold(noSearch, "true") {
			c.Search.Enabled = false
		}
	}
}
