// Package checkpoint persists the state of an action run so a crashed or
// interrupted run can resume without re-applying or skipping actions.
//
// The consumed-ID set, not the queue cursor, carries the idempotence
// guarantee: on resume the executor walks the full queue and skips anything
// in the set, so it does not matter which of the two writes landed before a
// crash. Saves go through a temporary file and an atomic rename.
package checkpoint
