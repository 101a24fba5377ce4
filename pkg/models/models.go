package models

import (
	"encoding/json"
	"strings"
	"time"
)

// SnapshotSource labels which list a snapshot was collected from.
type SnapshotSource string

const (
	SourceFollowing SnapshotSource = "following"
	SourceFollowers SnapshotSource = "followers"
)

// Account is a single remote account as revealed by the list UI.
// Identity is the stable remote ID; usernames are display handles and can
// change between runs, so they are never used as keys.
type Account struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CollectedAt time.Time       `json:"collected_at"`
}

// Snapshot is one complete collector pass over a list. Accounts appear in the
// order they were first revealed and no two entries share an ID.
type Snapshot struct {
	Source      SnapshotSource `json:"source"`
	CollectedAt time.Time      `json:"collected_at"`
	Partial     bool           `json:"partial"`
	Accounts    []Account      `json:"accounts"`
}

// IDSet returns the set of account IDs in the snapshot.
func (s *Snapshot) IDSet() map[string]bool {
	ids := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		ids[a.ID] = true
	}
	return ids
}

// DuplicateID reports the first ID that appears more than once, if any.
// A duplicate means the collector violated its contract.
func (s *Snapshot) DuplicateID() (string, bool) {
	seen := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		if seen[a.ID] {
			return a.ID, true
		}
		seen[a.ID] = true
	}
	return "", false
}

// QueueEntry is one pending action. The username is denormalized so the
// persisted queue stays readable to a human inspecting the file.
type QueueEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ActionQueue is the reconciled, ordered sequence of accounts still pending
// the unfollow action.
type ActionQueue struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Entries     []QueueEntry `json:"entries"`
}

// Len returns the number of pending entries.
func (q *ActionQueue) Len() int {
	return len(q.Entries)
}

// ExclusionSet is the whitelist of accounts that must never be unfollowed.
// Entries may be usernames or IDs since the list is usually authored by a
// human who only knows usernames. Matching is case-insensitive.
type ExclusionSet struct {
	values map[string]bool
}

// NewExclusionSet builds a set from raw whitelist entries.
func NewExclusionSet(entries []string) *ExclusionSet {
	values := make(map[string]bool, len(entries))
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			values[e] = true
		}
	}
	return &ExclusionSet{values: values}
}

// Contains reports whether the account is excluded, matched by ID or username.
func (e *ExclusionSet) Contains(a Account) bool {
	if e == nil || len(e.values) == 0 {
		return false
	}
	if e.values[strings.ToLower(a.ID)] {
		return true
	}
	return e.values[strings.ToLower(strings.TrimSpace(a.Username))]
}

// Len returns the number of whitelist entries.
func (e *ExclusionSet) Len() int {
	if e == nil {
		return 0
	}
	return len(e.values)
}
