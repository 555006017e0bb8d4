// Package config loads refundwatch configuration from YAML, overlaying a
// config file and environment variables onto documented defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store describes one configured storefront. The order of the Stores
// list is significant: it is the search priority during order resolution.
type Store struct {
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	ProfileDir string `yaml:"profile_dir"`
	DebugPort  int    `yaml:"debug_port"`
}

// EffectivePort returns the DevTools port for this store. The headless
// offset keeps headless instances off the ports the operator's
// interactive, logged-in sessions use.
func (s Store) EffectivePort(headless bool, offset int) int {
	if headless {
		return s.DebugPort + offset
	}
	return s.DebugPort
}

// Config holds all refundwatch configuration.
type Config struct {
	// Spreadsheet backing store
	SheetID         string `yaml:"sheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsFile string `yaml:"credentials_file"`

	// Browser automation host
	ChromePath string  `yaml:"chrome_path"`
	Stores     []Store `yaml:"stores"`

	// Loop and retry tuning
	PollSeconds         int  `yaml:"poll_seconds"`
	MaxRetries          int  `yaml:"max_retries"`
	RetryBackoffSeconds int  `yaml:"retry_backoff_seconds"`
	DryRun              bool `yaml:"dry_run"`
	Headless            bool `yaml:"headless"`
	HeadlessPortOffset  int  `yaml:"headless_port_offset"`
}

// Default returns the default configuration. Sheet identity and stores
// have no usable defaults and must come from the config file.
func Default() *Config {
	return &Config{
		SheetName:           "prototype",
		CredentialsFile:     "service_account.json",
		ChromePath:          "google-chrome",
		PollSeconds:         3,
		MaxRetries:          3,
		RetryBackoffSeconds: 1,
	}
}

// Load reads configuration from a YAML file on top of the defaults. A
// missing file is not an error; a malformed one is, so the caller can
// decide whether to fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REFUNDWATCH_SHEET_ID"); v != "" {
		c.SheetID = v
	}
	if v := os.Getenv("REFUNDWATCH_SHEET_NAME"); v != "" {
		c.SheetName = v
	}
	if v := os.Getenv("REFUNDWATCH_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("REFUNDWATCH_CHROME_PATH"); v != "" {
		c.ChromePath = v
	}
	if v := os.Getenv("REFUNDWATCH_DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DryRun = b
		}
	}
	if v := os.Getenv("REFUNDWATCH_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Headless = b
		}
	}
}

// Validate checks the configuration for values the system cannot run
// without.
func (c *Config) Validate() error {
	if c.SheetID == "" {
		return fmt.Errorf("sheet_id is required")
	}
	if c.SheetName == "" {
		return fmt.Errorf("sheet_name is required")
	}
	if c.ChromePath == "" {
		return fmt.Errorf("chrome_path is required")
	}
	if len(c.Stores) == 0 {
		return fmt.Errorf("at least one store is required")
	}
	seen := make(map[string]bool, len(c.Stores))
	for i, s := range c.Stores {
		if s.Code == "" {
			return fmt.Errorf("store %d: code is required", i)
		}
		if seen[s.Code] {
			return fmt.Errorf("store %q: duplicate code", s.Code)
		}
		seen[s.Code] = true
		if s.ProfileDir == "" {
			return fmt.Errorf("store %q: profile_dir is required", s.Code)
		}
		if s.DebugPort <= 0 {
			return fmt.Errorf("store %q: debug_port must be positive", s.Code)
		}
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive")
	}
	if c.RetryBackoffSeconds <= 0 {
		return fmt.Errorf("retry_backoff_seconds must be positive")
	}
	return nil
}

// PollInterval returns the sheet polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// Backoff returns the base retry backoff.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}
