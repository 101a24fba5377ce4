package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igunfollow/pkg/errors"
	"igunfollow/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
	headless   bool
	account    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igunfollow",
	Short: "Unfollow Instagram accounts that don't follow you back",
	Long: `igunfollow reconciles your following and followers lists through a real
browser session and unfollows the accounts that don't follow you back.

Features:
  - Secure credential storage using the system keychain
  - Whitelist of accounts that are never unfollowed
  - Conservative, human-paced action scheduling with an hourly cap
  - Automatic pause and backoff when Instagram shows a block warning
  - Crash-safe checkpoints: an interrupted run resumes where it stopped
  - Dry-run mode that shows the queue without touching anything`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/igunfollow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for snapshots, queue and checkpoints")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run the browser without a visible window")
	rootCmd.PersistentFlags().StringVarP(&account, "username", "u", "", "Instagram account to clean up")

	rootCmd.SetVersionTemplate(`igunfollow {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags into the shape config.Load merges.
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if account != "" {
		flags["username"] = account
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("headless") || rootCmd.PersistentFlags().Changed("headless") {
		flags["headless"] = headless
	}
	return flags
}
