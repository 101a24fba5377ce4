package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igunfollow/internal/browser"
	"igunfollow/pkg/auth"
	"igunfollow/pkg/checkpoint"
	"igunfollow/pkg/collector"
	"igunfollow/pkg/config"
	"igunfollow/pkg/driver"
	"igunfollow/pkg/errors"
	"igunfollow/pkg/executor"
	"igunfollow/pkg/logger"
	"igunfollow/pkg/models"
	"igunfollow/pkg/ratelimit"
	"igunfollow/pkg/reconcile"
	"igunfollow/pkg/storage"
	"igunfollow/pkg/ui"
	"igunfollow/pkg/ui/tui"
)

var (
	// Run command flags
	dryRun                bool
	skipScrape            bool
	assumeYes             bool
	allowPartialFollowers bool
	rateTier              string
	maxPerHour            int
	useTUI                bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, reconcile and unfollow non-followers",
	Long: `Run the full pipeline: enumerate the following and followers lists,
compute the accounts that don't follow back minus the whitelist, and unfollow
them one at a time under the configured rate limits.

The run is resumable: every applied action is recorded in a checkpoint, so an
interrupted run picks up exactly where it stopped without repeating an
unfollow. Use --dry-run to inspect the queue without acting on it.`,
	Example: `  # Preview who would be unfollowed, without touching anything
  igunfollow run --dry-run

  # Full run with confirmation prompt
  igunfollow run

  # Resume yesterday's run against the stored snapshots
  igunfollow run --skip-scrape --yes

  # Slow down for an account that has seen action blocks before
  igunfollow run --tier conservative

  # Watch the run in the live terminal UI
  igunfollow run --tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runRun(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "build and show the queue, apply nothing")
	runCmd.Flags().BoolVar(&skipScrape, "skip-scrape", false, "reuse the stored snapshots instead of collecting fresh ones")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().BoolVar(&allowPartialFollowers, "allow-partial-followers", false, "reconcile even when the followers snapshot is partial")
	runCmd.Flags().StringVar(&rateTier, "tier", "", "rate tier: conservative, medium or aggressive")
	runCmd.Flags().IntVar(&maxPerHour, "max-per-hour", 0, "explicit hourly action cap, overrides --tier")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show the live terminal UI during the run")
}

func runRun(cmd *cobra.Command) {
	cfg := loadRunConfig(cmd)

	store, err := storage.NewManager(cfg.Storage.DataDir)
	if err != nil {
		ui.PrintError("Failed to open data directory", err.Error())
		os.Exit(errors.ExitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	username := cfg.Account.Username
	detector := driver.NewDetector(cfg.BlockSignals.Phrases)

	var session *browser.Session
	defer func() {
		if session != nil {
			_ = session.Close()
		}
	}()

	var following, followers *models.Snapshot
	if skipScrape {
		following, followers = loadStoredSnapshots(store)
		if username == "" {
			username = usernameFromCredentials()
		}
	} else {
		if username == "" {
			username = usernameFromCredentials()
		}
		session = openSession(ctx, cfg, username)
		following, followers = collectSnapshots(session, cfg, detector, store)
	}

	queue := buildQueue(following, followers, store)
	ui.PrintQueuePreview(queue)

	if dryRun {
		ui.PrintSuccess("[DRY RUN] No actions were applied")
		return
	}
	if queue.Len() == 0 {
		return
	}

	if !assumeYes {
		prompt := fmt.Sprintf("Unfollow %d accounts?", queue.Len())
		if !ui.Confirm(os.Stdin, prompt) {
			ui.PrintWarning("Aborted, nothing was changed")
			return
		}
	}

	if session == nil {
		session = openSession(ctx, cfg, username)
	}

	hourlyCap := cfg.RateLimit.EffectiveMaxPerHour()
	tracker := ratelimit.NewWindow(hourlyCap, cfg.RateLimit.Window)
	checkpoints, err := checkpoint.NewManager(store.DataDir(), username)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(errors.ExitFailure)
	}

	exec := executor.New(session, session, detector, tracker, checkpoints, cfg.Delays)

	var stats *executor.Stats
	var runErr error
	if useTUI {
		stats, runErr = runWithTUI(ctx, exec, username, queue, tracker, hourlyCap)
	} else {
		ui.PrintHighlight(fmt.Sprintf("[STARTING RUN: %d pending, %d per hour max]", queue.Len(), hourlyCap))
		stats, runErr = exec.Run(ctx, username, queue)
	}

	notifier := ui.NewNotifier()
	if runErr != nil {
		logger.WithError(runErr).Error("Run stopped")
		notifier.SendError("igunfollow", "Run stopped: "+runErr.Error())
		ui.PrintError("RUN STOPPED", runErr.Error())
		os.Exit(errors.ExitCode(runErr))
	}

	summary := fmt.Sprintf("%d unfollowed, %d skipped, %d errors", stats.Succeeded, stats.Skipped, stats.Errors)
	logger.WithFields(map[string]interface{}{
		"succeeded": stats.Succeeded,
		"skipped":   stats.Skipped,
		"errors":    stats.Errors,
		"resumed":   stats.AlreadyConsumed,
	}).Info("Run finished")
	notifier.SendSuccess("igunfollow", "Run complete: "+summary)
	ui.PrintSuccess("[RUN COMPLETED: " + summary + "]")
}

// runWithTUI runs the executor behind the live session view. The executor
// runs in a goroutine; bubbletea owns the terminal until either side finishes.
func runWithTUI(ctx context.Context, exec *executor.Executor, username string, queue *models.ActionQueue, tracker ratelimit.Tracker, hourlyCap int) (*executor.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	terminal := tui.NewTUI(queue, hourlyCap)
	exec.OnEvent = func(ev executor.Event) {
		terminal.HandleExecutorEvent(ev)
		terminal.UpdateWindow(hourlyCap-tracker.Remaining(), hourlyCap)
	}

	type result struct {
		stats *executor.Stats
		err   error
	}
	execDone := make(chan result, 1)
	go func() {
		stats, err := exec.Run(ctx, username, queue)
		terminal.Done(err)
		execDone <- result{stats, err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case res := <-execDone:
		terminal.Stop()
		<-tuiDone
		return res.stats, res.err
	case err := <-tuiDone:
		// Operator quit the TUI; cancelling unwinds the run at its next
		// sleep and flushes the checkpoint.
		if err != nil {
			logger.WithError(err).Error("TUI failed")
		}
		cancel()
		res := <-execDone
		return res.stats, res.err
	}
}

// loadRunConfig merges flags, environment and file config for a run.
func loadRunConfig(cmd *cobra.Command) *config.Config {
	flags := globalFlags(cmd)
	if rateTier != "" {
		flags["tier"] = rateTier
	}
	if maxPerHour > 0 {
		flags["max-per-hour"] = maxPerHour
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(errors.ExitFailure)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(errors.ExitFailure)
	}
	logger.WithField("version", version).Info("igunfollow starting")

	return cfg
}

// usernameFromCredentials falls back to the stored default account when no
// username was configured anywhere else.
func usernameFromCredentials() string {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("No username configured and no credential store available", err.Error())
		os.Exit(errors.ExitFailure)
	}
	acct, err := manager.RetrieveDefault()
	if err != nil {
		ui.PrintError("No Instagram account configured", "")
		auth.ShowQuickCredentialGuide()
		os.Exit(errors.ExitFailure)
	}
	return acct.Username
}

// openSession launches the browser and logs in.
func openSession(ctx context.Context, cfg *config.Config, username string) *browser.Session {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(errors.ExitFailure)
	}

	acct, err := manager.Retrieve(username)
	if err != nil {
		acct, err = manager.RetrieveDefault()
	}
	if err != nil {
		ui.PrintError("No Instagram credentials found", "")
		auth.ShowQuickCredentialGuide()
		os.Exit(errors.ExitFailure)
	}

	session := browser.NewSession(cfg.Browser, username)
	if err := session.Start(ctx); err != nil {
		ui.PrintError("Failed to start browser", err.Error())
		os.Exit(errors.ExitCode(err))
	}
	if err := session.Login(acct); err != nil {
		_ = session.Close()
		ui.PrintError("Login failed", err.Error())
		os.Exit(errors.ExitCode(err))
	}
	return session
}

// collectSnapshots enumerates both lists and persists the snapshots. A
// collection that stalls below the reported total is downgraded to a partial
// snapshot with a warning; the reconciler decides whether a partial side is
// acceptable.
func collectSnapshots(session *browser.Session, cfg *config.Config, detector *driver.Detector, store *storage.Manager) (*models.Snapshot, *models.Snapshot) {
	collect := func(source models.SnapshotSource) *models.Snapshot {
		list, err := session.OpenList(string(source))
		if err != nil {
			ui.PrintError(fmt.Sprintf("Failed to open %s list", source), err.Error())
			os.Exit(errors.ExitCode(err))
		}

		col := collector.New(list, session, cfg.Collector)
		col.Backoff = blockPause(cfg.Delays)
		snap, err := col.Collect(source, detector)
		if err != nil {
			if typed, ok := err.(*errors.Error); ok && typed.Code == errors.ExitCollectionIncomplete {
				ui.PrintWarning("Collection incomplete", err.Error())
			} else {
				ui.PrintError(fmt.Sprintf("Failed to collect %s list", source), err.Error())
				os.Exit(errors.ExitCode(err))
			}
		}

		if err := store.SaveSnapshot(snap); err != nil {
			ui.PrintError("Failed to save snapshot", err.Error())
			os.Exit(errors.ExitFailure)
		}
		ui.PrintInfo(fmt.Sprintf("Collected %s", source), fmt.Sprintf("%d accounts", len(snap.Accounts)))
		return snap
	}

	following := collect(models.SourceFollowing)
	followers := collect(models.SourceFollowers)
	return following, followers
}

// blockPause returns the pause applied when a block phrase shows up during
// collection: a randomized sleep in the same backoff range the executor uses
// between actions.
func blockPause(delays config.DelayConfig) func(string) {
	return func(phrase string) {
		wait := delays.BackoffMin
		if delays.BackoffMax > delays.BackoffMin {
			wait += time.Duration(rand.Int63n(int64(delays.BackoffMax - delays.BackoffMin)))
		}
		logger.LogBlockSignal(phrase, wait.Minutes())
		time.Sleep(wait)
	}
}

// loadStoredSnapshots loads the snapshots a previous collect left behind.
func loadStoredSnapshots(store *storage.Manager) (*models.Snapshot, *models.Snapshot) {
	following, err := store.LoadSnapshot(models.SourceFollowing)
	if err == nil && following == nil {
		err = fmt.Errorf("no stored following snapshot, run without --skip-scrape first")
	}
	if err != nil {
		ui.PrintError("Cannot reuse stored snapshots", err.Error())
		os.Exit(errors.ExitFailure)
	}

	followers, err := store.LoadSnapshot(models.SourceFollowers)
	if err == nil && followers == nil {
		err = fmt.Errorf("no stored followers snapshot, run without --skip-scrape first")
	}
	if err != nil {
		ui.PrintError("Cannot reuse stored snapshots", err.Error())
		os.Exit(errors.ExitFailure)
	}

	return following, followers
}

// buildQueue reconciles the snapshots against the whitelist and persists the
// resulting queue.
func buildQueue(following, followers *models.Snapshot, store *storage.Manager) *models.ActionQueue {
	exclusions, err := store.LoadExclusions()
	if err != nil {
		ui.PrintError("Failed to load whitelist", err.Error())
		os.Exit(errors.ExitFailure)
	}
	if exclusions.Len() > 0 {
		ui.PrintInfo("Whitelist", fmt.Sprintf("%d protected accounts", exclusions.Len()))
	}

	queue, err := reconcile.Reconcile(following, followers, exclusions, reconcile.Options{
		AllowPartialFollowers: allowPartialFollowers,
	})
	if err != nil {
		ui.PrintError("Reconciliation failed", err.Error())
		os.Exit(errors.ExitCode(err))
	}

	if err := store.SaveQueue(queue); err != nil {
		ui.PrintError("Failed to save action queue", err.Error())
		os.Exit(errors.ExitFailure)
	}
	return queue
}
