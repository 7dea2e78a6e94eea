// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags, and API keys fall back to environment variables.
type Config struct {
	// Paths
	Profiles   string `json:"profiles,omitempty"`    // Path to profiles JSON file
	AliasTable string `json:"alias_table,omitempty"` // Path to topic alias table JSON file
	Output     string `json:"output,omitempty"`      // Path to the results JSON file

	// Providers
	SearchProvider string `json:"search_provider,omitempty" validate:"omitempty,oneof=brave google"`
	APIKey         string `json:"api_key,omitempty"`        // Gemini API key
	BraveAPIKey    string `json:"brave_api_key,omitempty"`  // Brave Search API key
	GoogleAPIKey   string `json:"google_api_key,omitempty"` // Google Custom Search API key
	GoogleCX       string `json:"google_cx,omitempty"`      // Google Custom Search engine ID
	DatabaseURL    string `json:"database_url,omitempty"`   // PostgreSQL connection URL; empty uses the file store

	// Limits
	BatchSize      int `json:"batch_size,omitempty" validate:"gte=0"`      // Profiles per checkpoint batch
	MaxCandidates  int `json:"max_candidates,omitempty" validate:"gte=0"`  // Search results per query
	Workers        int `json:"workers,omitempty" validate:"gte=0"`         // Parallel profiles per batch
	RetryAttempts  int `json:"retry_attempts,omitempty" validate:"gte=0"`  // Attempts per external call
	TimeoutSeconds int `json:"timeout_seconds,omitempty" validate:"gte=0"` // Per-call timeout

	// Behavior
	StrictAliases bool `json:"strict_aliases,omitempty"` // Abort on alias table conflicts
	Force         bool `json:"force,omitempty"`          // Reprocess handles already in the store
	UseBrowser    bool `json:"use_browser,omitempty"`    // Use headless browser for thin pages
	Verbose       bool `json:"verbose,omitempty"`        // Print detailed debug information
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Output:         "results.json",
		SearchProvider: "brave",
		BatchSize:      10,
		MaxCandidates:  10,
		Workers:        4,
		RetryAttempts:  3,
		TimeoutSeconds: 60,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv fills API keys and connection strings that are still empty
// from environment variables.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.BraveAPIKey == "" {
		c.BraveAPIKey = os.Getenv("BRAVE_SEARCH_API_KEY")
	}
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if c.GoogleCX == "" {
		c.GoogleCX = os.Getenv("GOOGLE_SEARCH_CX")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks that the configuration has valid values. Field-level
// constraints run through the struct validator; cross-field requirements
// are checked explicitly.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.SearchProvider {
	case "", "brave":
		if c.BraveAPIKey == "" {
			return fmt.Errorf("config error: brave search requires an API key (flag, config, or BRAVE_SEARCH_API_KEY)")
		}
	case "google":
		if c.GoogleAPIKey == "" || c.GoogleCX == "" {
			return fmt.Errorf("config error: google search requires an API key and engine ID")
		}
	}

	if c.APIKey == "" {
		return fmt.Errorf("config error: gemini API key is required (flag, config, or GEMINI_API_KEY)")
	}

	// Validate file paths exist (if specified)
	if c.Profiles != "" {
		if _, err := os.Stat(c.Profiles); os.IsNotExist(err) {
			return fmt.Errorf("config error: profiles file not found: %s", c.Profiles)
		}
	}
	if c.AliasTable != "" {
		if _, err := os.Stat(c.AliasTable); os.IsNotExist(err) {
			return fmt.Errorf("config error: alias table file not found: %s", c.AliasTable)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. This is used to apply config file values as defaults
// for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Profiles == "" {
		result.Profiles = defaults.Profiles
	}
	if result.AliasTable == "" {
		result.AliasTable = defaults.AliasTable
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.SearchProvider == "" {
		result.SearchProvider = defaults.SearchProvider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BraveAPIKey == "" {
		result.BraveAPIKey = defaults.BraveAPIKey
	}
	if result.GoogleAPIKey == "" {
		result.GoogleAPIKey = defaults.GoogleAPIKey
	}
	if result.GoogleCX == "" {
		result.GoogleCX = defaults.GoogleCX
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.MaxCandidates == 0 {
		result.MaxCandidates = defaults.MaxCandidates
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = defaults.RetryAttempts
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if !result.StrictAliases {
		result.StrictAliases = defaults.StrictAliases
	}
	if !result.Force {
		result.Force = defaults.Force
	}
	if !result.UseBrowser {
		result.UseBrowser = defaults.UseBrowser
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
