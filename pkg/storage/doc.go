// Package storage persists the collector snapshots, the reconciled action
// queue and the whitelist as JSON files under one data directory.
//
// Every write goes through a temp-then-rename cycle so a crash mid-write, or
// a human reading a file while a run is active, never sees a partial state.
package storage
