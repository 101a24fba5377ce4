package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)

	// Collector defaults
	assert.Equal(t, 1200*time.Millisecond, cfg.Collector.ScrollDelayMin)
	assert.Equal(t, 2200*time.Millisecond, cfg.Collector.ScrollDelayMax)
	assert.Equal(t, 3, cfg.Collector.StallThreshold)
	assert.Equal(t, 5*time.Second, cfg.Collector.ConfirmDelay)
	assert.Equal(t, 200, cfg.Collector.MaxRounds)
	assert.Equal(t, 0.90, cfg.Collector.CountThreshold)

	// Rate limit defaults
	assert.Equal(t, TierMedium, cfg.RateLimit.Tier)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)

	// Delay defaults
	assert.Equal(t, 170*time.Second, cfg.Delays.ActionDelayMin)
	assert.Equal(t, 240*time.Second, cfg.Delays.ActionDelayMax)
	assert.Equal(t, 10*time.Minute, cfg.Delays.BackoffMin)
	assert.Equal(t, 20*time.Minute, cfg.Delays.BackoffMax)
	assert.Equal(t, 3, cfg.Delays.MaxActionRetries)

	assert.NotEmpty(t, cfg.BlockSignals.Phrases)
	assert.Contains(t, cfg.BlockSignals.Phrases, "Action Blocked")

	assert.False(t, cfg.Browser.Headless)

	assert.NoError(t, cfg.Validate())
}

func TestEffectiveMaxPerHour(t *testing.T) {
	tests := []struct {
		name     string
		cfg      RateLimitConfig
		expected int
	}{
		{"conservative tier", RateLimitConfig{Tier: TierConservative}, 10},
		{"medium tier", RateLimitConfig{Tier: TierMedium}, 20},
		{"aggressive tier", RateLimitConfig{Tier: TierAggressive}, 40},
		{"unknown tier falls back to medium", RateLimitConfig{Tier: "weird"}, 20},
		{"explicit cap wins over tier", RateLimitConfig{Tier: TierConservative, MaxPerHour: 7}, 7},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.cfg.EffectiveMaxPerHour())
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("IGUNFOLLOW_USERNAME", "envuser")
	os.Setenv("IGUNFOLLOW_TIER", "conservative")
	os.Setenv("IGUNFOLLOW_MAX_PER_HOUR", "15")
	os.Setenv("IGUNFOLLOW_DATA_DIR", "/tmp/igunfollow-test")
	os.Setenv("IGUNFOLLOW_HEADLESS", "true")
	os.Setenv("IGUNFOLLOW_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("IGUNFOLLOW_USERNAME")
		os.Unsetenv("IGUNFOLLOW_TIER")
		os.Unsetenv("IGUNFOLLOW_MAX_PER_HOUR")
		os.Unsetenv("IGUNFOLLOW_DATA_DIR")
		os.Unsetenv("IGUNFOLLOW_HEADLESS")
		os.Unsetenv("IGUNFOLLOW_LOG_LEVEL")
	}()

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "envuser", cfg.Account.Username)
	assert.Equal(t, "conservative", cfg.RateLimit.Tier)
	assert.Equal(t, 15, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, "/tmp/igunfollow-test", cfg.Storage.DataDir)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
account:
  username: fileuser
rate_limit:
  tier: aggressive
collector:
  stall_threshold: 5
delays:
  action_delay_min: 100s
  action_delay_max: 200s
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "fileuser", cfg.Account.Username)
	assert.Equal(t, "aggressive", cfg.RateLimit.Tier)
	assert.Equal(t, 5, cfg.Collector.StallThreshold)
	assert.Equal(t, 100*time.Second, cfg.Delays.ActionDelayMin)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Untouched sections keep their defaults
	assert.Equal(t, 200, cfg.Collector.MaxRounds)
	assert.NotEmpty(t, cfg.BlockSignals.Phrases)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account: [not closed"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"zero stall threshold", func(c *Config) { c.Collector.StallThreshold = 0 }, false},
		{"max rounds below stall threshold", func(c *Config) { c.Collector.MaxRounds = 2 }, false},
		{"inverted scroll delay range", func(c *Config) {
			c.Collector.ScrollDelayMin = 3 * time.Second
			c.Collector.ScrollDelayMax = time.Second
		}, false},
		{"count threshold above one", func(c *Config) { c.Collector.CountThreshold = 1.5 }, false},
		{"unknown tier without explicit cap", func(c *Config) { c.RateLimit.Tier = "reckless" }, false},
		{"unknown tier with explicit cap", func(c *Config) {
			c.RateLimit.Tier = "reckless"
			c.RateLimit.MaxPerHour = 5
		}, true},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, false},
		{"inverted action delay range", func(c *Config) {
			c.Delays.ActionDelayMin = 200 * time.Second
			c.Delays.ActionDelayMax = 100 * time.Second
		}, false},
		{"inverted backoff range", func(c *Config) {
			c.Delays.BackoffMin = 20 * time.Minute
			c.Delays.BackoffMax = 10 * time.Minute
		}, false},
		{"negative retries", func(c *Config) { c.Delays.MaxActionRetries = -1 }, false},
		{"empty block vocabulary", func(c *Config) { c.BlockSignals.Phrases = nil }, false},
		{"invalid log level", func(c *Config) { c.Logging.Level = "loud" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"username":     "flaguser",
		"tier":         "conservative",
		"max-per-hour": 12,
		"data-dir":     "/tmp/flags",
		"headless":     true,
		"log-level":    "error",
	})

	assert.Equal(t, "flaguser", cfg.Account.Username)
	assert.Equal(t, "conservative", cfg.RateLimit.Tier)
	assert.Equal(t, 12, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, "/tmp/flags", cfg.Storage.DataDir)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Account.Username = "saveduser"
	cfg.RateLimit.MaxPerHour = 8
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))

	assert.Equal(t, "saveduser", reloaded.Account.Username)
	assert.Equal(t, 8, reloaded.RateLimit.MaxPerHour)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  username: fromfile\n"), 0644))

	os.Setenv("IGUNFOLLOW_USERNAME", "fromenv")
	defer os.Unsetenv("IGUNFOLLOW_USERNAME")

	// Env beats file
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Account.Username)

	// Flags beat env
	cfg, err = Load(path, map[string]interface{}{"username": "fromflag"})
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.Account.Username)
}

func TestLoadRejectsInvalidMergedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collector:\n  stall_threshold: 0\n"), 0644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}
