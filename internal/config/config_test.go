package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.SheetID = "sheet-1"
	cfg.Stores = []Store{
		{Code: "s2c", Name: "first", ProfileDir: "/profiles/s2c", DebugPort: 9222},
		{Code: "lion", Name: "second", ProfileDir: "/profiles/lion", DebugPort: 9223},
	}
	return cfg
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.PollSeconds)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, 1, cfg.RetryBackoffSeconds)
	require.False(t, cfg.DryRun)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refundwatch.yaml")
	data := `
sheet_id: sheet-42
poll_seconds: 10
stores:
  - code: s2c
    name: first
    profile_dir: /profiles/s2c
    debug_port: 9222
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sheet-42", cfg.SheetID)
	require.Equal(t, 10, cfg.PollSeconds)
	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, "prototype", cfg.SheetName)
	require.Len(t, cfg.Stores, 1)
	require.Equal(t, "s2c", cfg.Stores[0].Code)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stores: [}"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REFUNDWATCH_SHEET_ID", "env-sheet")
	t.Setenv("REFUNDWATCH_DRY_RUN", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "env-sheet", cfg.SheetID)
	require.True(t, cfg.DryRun)
}

func TestEffectivePort(t *testing.T) {
	st := Store{Code: "s2c", DebugPort: 9222}
	require.Equal(t, 9222, st.EffectivePort(false, 100))
	require.Equal(t, 9322, st.EffectivePort(true, 100))
	require.Equal(t, 9222, st.EffectivePort(true, 0))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing sheet id", func(c *Config) { c.SheetID = "" }, "sheet_id"},
		{"missing sheet name", func(c *Config) { c.SheetName = "" }, "sheet_name"},
		{"missing chrome path", func(c *Config) { c.ChromePath = "" }, "chrome_path"},
		{"no stores", func(c *Config) { c.Stores = nil }, "store"},
		{"duplicate store code", func(c *Config) { c.Stores[1].Code = "s2c" }, "duplicate"},
		{"store without code", func(c *Config) { c.Stores[0].Code = "" }, "code"},
		{"store without profile", func(c *Config) { c.Stores[0].ProfileDir = "" }, "profile_dir"},
		{"bad debug port", func(c *Config) { c.Stores[0].DebugPort = 0 }, "debug_port"},
		{"bad poll interval", func(c *Config) { c.PollSeconds = 0 }, "poll_seconds"},
		{"bad retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"bad backoff", func(c *Config) { c.RetryBackoffSeconds = -1 }, "retry_backoff"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()
	cfg.PollSeconds = 7
	cfg.RetryBackoffSeconds = 2
	require.Equal(t, 7*time.Second, cfg.PollInterval())
	require.Equal(t, 2*time.Second, cfg.Backoff())
}
