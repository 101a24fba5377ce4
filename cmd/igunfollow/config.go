package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igunfollow/pkg/config"
	"igunfollow/pkg/storage"
	"igunfollow/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igunfollow configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGUNFOLLOW_*)
  - A .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'igunfollow.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources:
flags, environment variables, the configuration file and defaults.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Data directory accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "igunfollow.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# igunfollow configuration file
#
# Every option can also be set through environment variables prefixed with
# IGUNFOLLOW_, e.g. IGUNFOLLOW_USERNAME, IGUNFOLLOW_TIER.

# The account whose lists are reconciled
account:
  username: ""

# List enumeration tuning
collector:
  # Randomized wait between scrolls, so reveals are not machine-paced
  scroll_delay_min: 1.2s
  scroll_delay_max: 2.2s
  # Consecutive empty scrolls before the end-of-list confirmation pass
  stall_threshold: 3
  # Longer wait before the confirmation pass
  confirm_delay: 5s
  # Hard ceiling on scroll rounds per list
  max_rounds: 200
  # Fraction of the reported total a snapshot must reach to count as complete
  count_threshold: 0.90

# Hourly action cap
rate_limit:
  # conservative (10/h), medium (20/h) or aggressive (40/h)
  tier: medium
  # Explicit cap, overrides the tier when set
  max_per_hour: 0
  window: 1h

# Pacing between and around actions
delays:
  action_delay_min: 170s
  action_delay_max: 240s
  # Pause after a detected block warning
  backoff_min: 10m
  backoff_max: 20m
  # Shorter pause after a failed attempt
  error_backoff_min: 60s
  error_backoff_max: 120s
  max_action_retries: 3

# Phrases that indicate Instagram is throttling the account
block_signals:
  phrases:
    - "Action Blocked"
    - "Try Again Later"
    - "Please Wait"
    - "Protecting our community"
    - "We restrict certain activity"
    - "Please Slow Down"

# Browser session settings
browser:
  # Keep the window visible for first logins and 2FA prompts
  headless: false
  # Persistent Chrome profile dir; reuse keeps you logged in between runs
  user_data_dir: ""
  navigation_wait: 30s

# Where snapshots, the queue, the whitelist and checkpoints live
storage:
  # Empty means the platform data dir, e.g. ~/.local/share/igunfollow
  data_dir: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"
  # Log file path; empty logs to stdout only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file, set your username, and add protected accounts")
	fmt.Println("   to the whitelist file in the data directory")
	fmt.Println("2. Run 'igunfollow config validate' to check the configuration")
	fmt.Println("3. Preview the queue with 'igunfollow run --dry-run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IGUNFOLLOW_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		ui.PrintInfo("Validating configuration", "merged defaults, env and discovered config file")
	} else {
		ui.PrintInfo("Validating configuration", path)
	}

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if cfg.Account.Username == "" {
		warnings = append(warnings, "no username configured; the stored default account will be used")
	}

	// The data directory must be creatable for snapshots and checkpoints.
	if _, err := storage.NewManager(cfg.Storage.DataDir); err != nil {
		ui.PrintError("Configuration has errors:", "")
		fmt.Printf("  - data directory is not usable: %v\n", err)
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Account: %s\n", cfg.Account.Username)
	fmt.Printf("  Rate cap: %d actions/hour (%s tier)\n", cfg.RateLimit.EffectiveMaxPerHour(), cfg.RateLimit.Tier)
	fmt.Printf("  Action delay: %s - %s\n", cfg.Delays.ActionDelayMin, cfg.Delays.ActionDelayMax)
	fmt.Printf("  Block phrases: %d configured\n", len(cfg.BlockSignals.Phrases))
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
