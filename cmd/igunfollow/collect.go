package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igunfollow/pkg/driver"
	"igunfollow/pkg/errors"
	"igunfollow/pkg/storage"
	"igunfollow/pkg/ui"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect snapshots and preview the unfollow queue",
	Long: `Enumerate the following and followers lists, store the snapshots, and
print the accounts that would be unfollowed. Nothing is acted on.

This is the scripting-friendly form of 'run --dry-run': a later
'run --skip-scrape' reuses the snapshots this command stored.`,
	Example: `  # Collect fresh snapshots and preview the queue
  igunfollow collect

  # Tolerate an incomplete followers list
  igunfollow collect --allow-partial-followers`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runCollect(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().BoolVar(&allowPartialFollowers, "allow-partial-followers", false, "reconcile even when the followers snapshot is partial")
}

func runCollect(cmd *cobra.Command) {
	cfg := loadRunConfig(cmd)

	store, err := storage.NewManager(cfg.Storage.DataDir)
	if err != nil {
		ui.PrintError("Failed to open data directory", err.Error())
		os.Exit(errors.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	username := cfg.Account.Username
	if username == "" {
		username = usernameFromCredentials()
	}

	detector := driver.NewDetector(cfg.BlockSignals.Phrases)

	session := openSession(ctx, cfg, username)
	defer func() {
		_ = session.Close()
	}()

	following, followers := collectSnapshots(session, cfg, detector, store)
	queue := buildQueue(following, followers, store)
	ui.PrintQueuePreview(queue)

	// Scripts key off the exit code: 2 means a snapshot stalled short of the
	// reported total.
	if following.Partial || followers.Partial {
		os.Exit(errors.ExitCollectionIncomplete)
	}
}
