package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the unfollow tool. Everything
// the collector, tracker and executor tune on lives here so independent runs
// and tests can use independent configurations.
type Config struct {
	// Account is the profile whose lists are reconciled
	Account AccountConfig `yaml:"account" json:"account"`

	// Collector policy for enumerating virtualized lists
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Pacing between and around actions
	Delays DelayConfig `yaml:"delays" json:"delays"`

	// Block-signal vocabulary
	BlockSignals BlockSignalConfig `yaml:"block_signals" json:"block_signals"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Data directory for snapshots, queue and checkpoints
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AccountConfig identifies the account being cleaned up.
type AccountConfig struct {
	Username string `yaml:"username" json:"username"`
}

// CollectorConfig tunes the stall-and-confirm enumeration heuristic.
type CollectorConfig struct {
	// ScrollDelayMin/Max bound the randomized wait between reveal calls so
	// asynchronous rendering can settle.
	ScrollDelayMin time.Duration `yaml:"scroll_delay_min" json:"scroll_delay_min"`
	ScrollDelayMax time.Duration `yaml:"scroll_delay_max" json:"scroll_delay_max"`
	// StallThreshold is how many consecutive zero-new-item passes are needed
	// before the confirmation pass runs.
	StallThreshold int `yaml:"stall_threshold" json:"stall_threshold"`
	// ConfirmDelay is the longer wait before the confirmation pass. The feed
	// can pause rendering mid-batch without being exhausted.
	ConfirmDelay time.Duration `yaml:"confirm_delay" json:"confirm_delay"`
	// MaxRounds is the hard ceiling on reveal calls for one list.
	MaxRounds int `yaml:"max_rounds" json:"max_rounds"`
	// CountThreshold is the fraction of the reported total a snapshot must
	// reach to be considered complete.
	CountThreshold float64 `yaml:"count_threshold" json:"count_threshold"`
}

// RateLimitConfig holds rate limiting configuration. Tier presets map to a
// per-hour cap; an explicit MaxPerHour overrides the tier.
type RateLimitConfig struct {
	Tier       string        `yaml:"tier" json:"tier"`
	MaxPerHour int           `yaml:"max_per_hour" json:"max_per_hour"`
	Window     time.Duration `yaml:"window" json:"window"`
}

// Tier presets. Conservative is the safe default for aged accounts under
// scrutiny, aggressive is for accounts with a clean history.
const (
	TierConservative = "conservative"
	TierMedium       = "medium"
	TierAggressive   = "aggressive"
)

// EffectiveMaxPerHour resolves the tier to a concrete cap.
func (r *RateLimitConfig) EffectiveMaxPerHour() int {
	if r.MaxPerHour > 0 {
		return r.MaxPerHour
	}
	switch strings.ToLower(r.Tier) {
	case TierConservative:
		return 10
	case TierAggressive:
		return 40
	default:
		return 20
	}
}

// DelayConfig bounds the randomized sleeps the executor applies.
type DelayConfig struct {
	// ActionDelayMin/Max pace successful actions. This is the primary
	// throttle alongside the hourly cap.
	ActionDelayMin time.Duration `yaml:"action_delay_min" json:"action_delay_min"`
	ActionDelayMax time.Duration `yaml:"action_delay_max" json:"action_delay_max"`
	// BackoffMin/Max bound the pause after a detected block signal.
	BackoffMin time.Duration `yaml:"backoff_min" json:"backoff_min"`
	BackoffMax time.Duration `yaml:"backoff_max" json:"backoff_max"`
	// ErrorBackoffMin/Max bound the shorter pause after a failed attempt.
	ErrorBackoffMin time.Duration `yaml:"error_backoff_min" json:"error_backoff_min"`
	ErrorBackoffMax time.Duration `yaml:"error_backoff_max" json:"error_backoff_max"`
	// MaxActionRetries bounds transient retries for a single queue item.
	MaxActionRetries int `yaml:"max_action_retries" json:"max_action_retries"`
}

// BlockSignalConfig is the vocabulary of phrases that indicate throttling.
// It is configuration data so new phrases can be added without touching the
// executor state machine.
type BlockSignalConfig struct {
	Phrases []string `yaml:"phrases" json:"phrases"`
}

// BrowserConfig holds browser session settings for the rod driver.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir" json:"user_data_dir"`
	NavigationWait time.Duration `yaml:"navigation_wait" json:"navigation_wait"`
}

// StorageConfig holds data directory configuration.
type StorageConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults. The pacing
// numbers match the medium-risk profile: roughly 15-20 actions per hour with
// multi-minute gaps.
func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			ScrollDelayMin: 1200 * time.Millisecond,
			ScrollDelayMax: 2200 * time.Millisecond,
			StallThreshold: 3,
			ConfirmDelay:   5 * time.Second,
			MaxRounds:      200,
			CountThreshold: 0.90,
		},
		RateLimit: RateLimitConfig{
			Tier:   TierMedium,
			Window: time.Hour,
		},
		Delays: DelayConfig{
			ActionDelayMin:   170 * time.Second,
			ActionDelayMax:   240 * time.Second,
			BackoffMin:       10 * time.Minute,
			BackoffMax:       20 * time.Minute,
			ErrorBackoffMin:  60 * time.Second,
			ErrorBackoffMax:  120 * time.Second,
			MaxActionRetries: 3,
		},
		BlockSignals: BlockSignalConfig{
			Phrases: []string{
				"Action Blocked",
				"Try Again Later",
				"Please Wait",
				"Protecting our community",
				"We restrict certain activity",
				"Please Slow Down",
			},
		},
		Browser: BrowserConfig{
			Headless:       false,
			NavigationWait: 30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "", // resolved to the platform data dir when empty
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("IGUNFOLLOW_USERNAME"); username != "" {
		c.Account.Username = username
	}
	if tier := os.Getenv("IGUNFOLLOW_TIER"); tier != "" {
		c.RateLimit.Tier = tier
	}
	if perHour := os.Getenv("IGUNFOLLOW_MAX_PER_HOUR"); perHour != "" {
		if val, err := strconv.Atoi(perHour); err == nil && val > 0 {
			c.RateLimit.MaxPerHour = val
		}
	}
	if dataDir := os.Getenv("IGUNFOLLOW_DATA_DIR"); dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if headless := os.Getenv("IGUNFOLLOW_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if logLevel := os.Getenv("IGUNFOLLOW_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igunfollow.yaml",
		".igunfollow.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igunfollow", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igunfollow", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igunfollow.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Collector.StallThreshold <= 0 {
		errs = append(errs, errors.New("stall threshold must be positive"))
	}
	if c.Collector.MaxRounds <= c.Collector.StallThreshold {
		errs = append(errs, errors.New("max rounds must exceed the stall threshold"))
	}
	if c.Collector.ScrollDelayMin < 0 || c.Collector.ScrollDelayMax < c.Collector.ScrollDelayMin {
		errs = append(errs, errors.New("scroll delay range is inverted"))
	}
	if c.Collector.CountThreshold <= 0 || c.Collector.CountThreshold > 1 {
		errs = append(errs, errors.New("count threshold must be in (0, 1]"))
	}

	switch strings.ToLower(c.RateLimit.Tier) {
	case TierConservative, TierMedium, TierAggressive, "":
	default:
		if c.RateLimit.MaxPerHour <= 0 {
			errs = append(errs, fmt.Errorf("unknown rate tier %q", c.RateLimit.Tier))
		}
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate window must be positive"))
	}

	if c.Delays.ActionDelayMax < c.Delays.ActionDelayMin {
		errs = append(errs, errors.New("action delay range is inverted"))
	}
	if c.Delays.BackoffMax < c.Delays.BackoffMin {
		errs = append(errs, errors.New("backoff range is inverted"))
	}
	if c.Delays.MaxActionRetries < 0 {
		errs = append(errs, errors.New("max action retries cannot be negative"))
	}

	if len(c.BlockSignals.Phrases) == 0 {
		errs = append(errs, errors.New("block-signal vocabulary cannot be empty"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Account.Username = username
	}
	if tier, ok := flags["tier"].(string); ok && tier != "" {
		c.RateLimit.Tier = tier
	}
	if perHour, ok := flags["max-per-hour"].(int); ok && perHour > 0 {
		c.RateLimit.MaxPerHour = perHour
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igunfollow.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
