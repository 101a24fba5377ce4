package logger

// Domain-specific logging helpers shared by the collector and executor.

// LogBlockSignal logs a detected block phrase together with how long the
// run will pause for.
func LogBlockSignal(phrase string, pauseMinutes float64) {
	GetLogger().WithFields(map[string]interface{}{
		"phrase":        phrase,
		"pause_minutes": pauseMinutes,
	}).Warn("Block signal detected, pausing")
}

// LogCollectProgress logs enumeration progress against the reported total.
func LogCollectProgress(source string, seen, reported int) {
	fields := map[string]interface{}{
		"source": source,
		"seen":   seen,
	}
	if reported > 0 {
		fields["reported_total"] = reported
	}
	GetLogger().InfoWithFields("Collection progress", fields)
}

// LogAction logs the outcome of one unfollow attempt.
func LogAction(username, outcome string, err error) {
	log := GetLogger().WithFields(map[string]interface{}{
		"username": username,
		"outcome":  outcome,
	})
	if err != nil {
		log.WithError(err).Warn("Action attempt failed")
		return
	}
	log.Info("Action applied")
}

// LogWindowExhausted logs that the hourly cap was hit and when the run
// resumes.
func LogWindowExhausted(used int, waitSeconds int) {
	GetLogger().WithFields(map[string]interface{}{
		"actions_this_window": used,
		"wait_seconds":        waitSeconds,
	}).Info("Rate window exhausted, waiting")
}
