// Package executor drains the reconciled action queue as a resumable,
// rate-limited state machine.
//
// Every state change is persisted to the checkpoint before the run proceeds,
// so a crash between any two writes resumes exactly where it left off: the
// consumed-ID set decides what has been done, never the queue position alone.
// The hourly cap pauses the run until the rolling window frees a slot, and
// observed block phrases trigger a long randomized backoff with the current
// entry retried afterwards.
package executor
