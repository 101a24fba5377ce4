package executor

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	"igunfollow/pkg/checkpoint"
	"igunfollow/pkg/config"
	"igunfollow/pkg/driver"
	"igunfollow/pkg/errors"
	"igunfollow/pkg/logger"
	"igunfollow/pkg/models"
	"igunfollow/pkg/ratelimit"
	"igunfollow/pkg/retry"
)

// EventKind labels executor progress events.
type EventKind string

const (
	EventStateChange   EventKind = "state_change"
	EventActionApplied EventKind = "action_applied"
	EventActionSkipped EventKind = "action_skipped"
	EventActionFailed  EventKind = "action_failed"
	EventWaiting       EventKind = "waiting"
)

// Event is one progress notification, consumed by the TUI and by tests.
type Event struct {
	Kind  EventKind
	Entry *models.QueueEntry
	State checkpoint.State
	Wait  time.Duration
	Err   error
}

// Stats summarizes one run.
type Stats struct {
	// Succeeded counts actions applied during this run.
	Succeeded int
	// Skipped counts entries resolved without applying the action, e.g. the
	// relationship no longer existed.
	Skipped int
	// Errors counts entries abandoned after the per-item retry budget.
	Errors int
	// AlreadyConsumed counts entries a previous run had already resolved.
	AlreadyConsumed int
}

// Executor drains an action queue under the rate window, persisting a
// checkpoint after every state change so a crash at any point resumes without
// repeating or skipping an action. ConsumedIDs in the checkpoint is the
// idempotence source of truth: the executor always walks the queue from the
// top and skips consumed entries, so a stale cursor after a crash is harmless.
type Executor struct {
	driver      driver.ActionDriver
	probe       driver.BlockProbe
	detector    *driver.Detector
	tracker     ratelimit.Tracker
	checkpoints *checkpoint.Manager
	delays      config.DelayConfig
	logger      logger.Logger

	// Sleep waits for the duration or until the context is cancelled. Tests
	// replace it to drive simulated time.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now is the time source, injectable for tests.
	Now func() time.Time
	// OnEvent, when set, receives progress events.
	OnEvent func(Event)

	rand *rand.Rand
}

// New creates an executor. probe may be nil when the session has no
// block-signal surface; block handling then degrades to ambiguous-result
// retries alone.
func New(d driver.ActionDriver, probe driver.BlockProbe, detector *driver.Detector, tracker ratelimit.Tracker, checkpoints *checkpoint.Manager, delays config.DelayConfig) *Executor {
	return &Executor{
		driver:      d,
		probe:       probe,
		detector:    detector,
		tracker:     tracker,
		checkpoints: checkpoints,
		delays:      delays,
		logger:      logger.GetLogger(),
		Sleep:       retry.Wait,
		Now:         time.Now,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drains the queue for username. It returns run statistics plus the
// first error that stopped the run; a fully drained queue leaves the
// checkpoint in the completed state.
func (e *Executor) Run(ctx context.Context, username string, queue *models.ActionQueue) (*Stats, error) {
	cp, err := e.checkpoints.LoadOrCreate(username)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNonRecoverable, "checkpoint unavailable", err)
	}

	stats := &Stats{}
	log := e.logger.WithField("username", username)
	log.WithField("pending", queue.Len()).Info("Run started")

	if err := e.transition(cp, checkpoint.StateRunning); err != nil {
		return stats, err
	}

	for i := range queue.Entries {
		entry := &queue.Entries[i]
		if cp.IsConsumed(entry.ID) {
			stats.AlreadyConsumed++
			continue
		}

		if err := e.processEntry(ctx, cp, entry, i, stats); err != nil {
			return stats, err
		}
	}

	if err := e.transition(cp, checkpoint.StateCompleted); err != nil {
		return stats, err
	}

	log.WithFields(map[string]interface{}{
		"succeeded": stats.Succeeded,
		"skipped":   stats.Skipped,
		"errors":    stats.Errors,
	}).Info("Run completed")

	return stats, nil
}

// abortError carries a run-stopping error out of the retry loop so it is
// returned immediately instead of consuming the per-entry budget.
type abortError struct{ err error }

func (a *abortError) Error() string { return a.err.Error() }
func (a *abortError) Unwrap() error { return a.err }

func abort(err error) error { return &abortError{err: err} }

// processEntry drives one queue entry to a resolution: applied, skipped, or
// abandoned after the retry budget. Transient failures and unconfirmed
// outcomes burn through the budget via retry.Do; block signals pause the run
// but never resolve the entry or touch the budget.
func (e *Executor) processEntry(ctx context.Context, cp *checkpoint.Checkpoint, entry *models.QueueEntry, index int, stats *Stats) error {
	log := e.logger.WithField("target", entry.Username)

	var result driver.ActionResult
	attempt := func() error {
		// skipProbe suppresses the pre-action poll right after a block
		// backoff already paused, so one persistent dialog does not stack
		// pauses before the retry gets a chance to run.
		skipProbe := false
		for {
			if !skipProbe {
				// A phrase already on screen means the account is throttled
				// before we touch anything; pause first.
				if err := e.backoffOnBlockSignal(ctx, cp); err != nil {
					return abort(err)
				}
			}
			skipProbe = false

			if err := e.awaitWindow(ctx, cp); err != nil {
				return abort(err)
			}

			res, err := e.driver.ApplyAction(driver.EntityRef{ID: entry.ID, Username: entry.Username})
			if err != nil {
				if errors.TypeOf(err) == errors.ErrorTypeNonRecoverable {
					e.failRun(cp, err)
					return abort(errors.ExecutorFailed(err))
				}
				return err
			}

			if res == driver.ActionAmbiguous {
				// The UI neither confirmed nor denied. If a block phrase is
				// visible this is throttling: back off and retry the same
				// entry. Otherwise treat it like a transient failure.
				if phrase, blocked := e.observedPhrase(); blocked {
					log.WithField("phrase", phrase).Warn("Block signal after ambiguous action")
					if err := e.blockBackoff(ctx, cp, phrase); err != nil {
						return abort(err)
					}
					skipProbe = true
					continue
				}
				return errors.New(errors.ErrorTypeTransient, "action outcome unconfirmed")
			}

			result = res
			return nil
		}
	}

	if err := retry.Do(attempt, e.retryConfig(ctx, cp)); err != nil {
		var stop *abortError
		if stderrors.As(err, &stop) {
			return stop.err
		}
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrorTypeTransient, "run interrupted", ctx.Err())
		}
		log.WithError(err).Error("Entry abandoned after retry budget")
		stats.Errors++
		e.emit(Event{Kind: EventActionFailed, Entry: entry, Err: err})
		return nil
	}

	switch result {
	case driver.ActionSuccess:
		cp.MarkConsumed(entry.ID)
		cp.QueueCursor = index + 1
		cp.LastActionAt = e.Now()
		if err := e.checkpoints.Save(cp); err != nil {
			return errors.Wrap(errors.ErrorTypeNonRecoverable, "checkpoint write failed", err)
		}
		stats.Succeeded++
		logger.LogAction(entry.Username, "applied", nil)
		e.emit(Event{Kind: EventActionApplied, Entry: entry})

		// The action stands even if a block phrase appears now; the
		// pause protects the next action, not this one.
		if err := e.backoffOnBlockSignal(ctx, cp); err != nil {
			return err
		}
		return e.interActionDelay(ctx, cp)

	default: // ActionFailure
		// Definitively not applicable, e.g. the relationship is already
		// gone. Consume it so a resume does not revisit the entry.
		cp.MarkConsumed(entry.ID)
		cp.QueueCursor = index + 1
		if err := e.checkpoints.Save(cp); err != nil {
			return errors.Wrap(errors.ErrorTypeNonRecoverable, "checkpoint write failed", err)
		}
		stats.Skipped++
		logger.LogAction(entry.Username, "skipped", nil)
		e.emit(Event{Kind: EventActionSkipped, Entry: entry})
		return nil
	}
}

// retryConfig binds the per-entry budget to the configured error-backoff
// range, pausing through the executor so the checkpoint and the event stream
// see every wait.
func (e *Executor) retryConfig(ctx context.Context, cp *checkpoint.Checkpoint) *retry.Config {
	return &retry.Config{
		MaxAttempts: e.delays.MaxActionRetries + 1,
		Backoff: &retry.RangeBackoff{
			Min:  e.delays.ErrorBackoffMin,
			Max:  e.delays.ErrorBackoffMax,
			Rand: e.rand,
		},
		RetryIf: func(err error) bool {
			var stop *abortError
			return !stderrors.As(err, &stop)
		},
		Context: ctx,
		Logger:  e.logger,
		Sleep: func(ctx context.Context, wait time.Duration) error {
			return e.pause(ctx, cp, checkpoint.StateRunning, wait)
		},
	}
}

// awaitWindow blocks until the rate window admits another action, recording
// the pause in the checkpoint.
func (e *Executor) awaitWindow(ctx context.Context, cp *checkpoint.Checkpoint) error {
	for !e.tracker.TryConsume() {
		wait := time.Second
		if next := e.tracker.NextAllowed(); !next.IsZero() {
			wait = next.Sub(e.Now())
		}
		if wait <= 0 {
			wait = time.Second
		}

		cp.RateLimitPauses++
		logger.LogWindowExhausted(e.tracker.Remaining(), int(wait.Seconds()))
		if err := e.pause(ctx, cp, checkpoint.StatePausedRateLimit, wait); err != nil {
			return err
		}
	}
	return nil
}

// blockBackoff records a block-signal pause and sleeps the long randomized
// backoff before the entry is retried.
func (e *Executor) blockBackoff(ctx context.Context, cp *checkpoint.Checkpoint, phrase string) error {
	wait := e.randomDelay(e.delays.BackoffMin, e.delays.BackoffMax)
	logger.LogBlockSignal(phrase, wait.Minutes())
	cp.BackoffPauses++
	return e.pause(ctx, cp, checkpoint.StatePausedBackoff, wait)
}

// backoffOnBlockSignal applies the block backoff only when a phrase is
// currently visible.
func (e *Executor) backoffOnBlockSignal(ctx context.Context, cp *checkpoint.Checkpoint) error {
	phrase, blocked := e.observedPhrase()
	if !blocked {
		return nil
	}
	return e.blockBackoff(ctx, cp, phrase)
}

// interActionDelay sleeps the randomized gap between successful actions.
func (e *Executor) interActionDelay(ctx context.Context, cp *checkpoint.Checkpoint) error {
	return e.pause(ctx, cp, checkpoint.StateRunning, e.randomDelay(e.delays.ActionDelayMin, e.delays.ActionDelayMax))
}

// pause persists the given state, sleeps, and restores the running state.
// A crash mid-pause resumes from a checkpoint that names the pause, which is
// what an operator inspecting the file wants to see.
func (e *Executor) pause(ctx context.Context, cp *checkpoint.Checkpoint, state checkpoint.State, wait time.Duration) error {
	if state != cp.State {
		if err := e.transition(cp, state); err != nil {
			return err
		}
	}
	e.emit(Event{Kind: EventWaiting, State: state, Wait: wait})

	if err := e.Sleep(ctx, wait); err != nil {
		// Cancelled: flush the current position before unwinding.
		_ = e.checkpoints.Save(cp)
		return errors.Wrap(errors.ErrorTypeTransient, "run interrupted", err)
	}

	if cp.State != checkpoint.StateRunning {
		return e.transition(cp, checkpoint.StateRunning)
	}
	return nil
}

// transition persists a state change.
func (e *Executor) transition(cp *checkpoint.Checkpoint, state checkpoint.State) error {
	cp.State = state
	if err := e.checkpoints.Save(cp); err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "checkpoint write failed", err)
	}
	e.emit(Event{Kind: EventStateChange, State: state})
	return nil
}

// failRun records the failed state; the error itself is surfaced by the
// caller.
func (e *Executor) failRun(cp *checkpoint.Checkpoint, cause error) {
	cp.State = checkpoint.StateFailed
	if err := e.checkpoints.Save(cp); err != nil {
		e.logger.WithError(err).Error("Failed to persist failed state")
	}
	e.emit(Event{Kind: EventStateChange, State: checkpoint.StateFailed, Err: cause})
}

// observedPhrase scans the session's block-signal surface.
func (e *Executor) observedPhrase() (string, bool) {
	if e.probe == nil || e.detector == nil {
		return "", false
	}
	return e.detector.Match(e.probe.ObservedBlockPhrases())
}

// randomDelay picks a duration inside [min, max].
func (e *Executor) randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(e.rand.Int63n(int64(max-min)))
}

// emit delivers an event when a listener is registered.
func (e *Executor) emit(ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}
