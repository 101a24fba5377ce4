package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igunfollow/pkg/logger"
)

// State is the executor state recorded in the checkpoint.
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StatePausedRateLimit State = "paused_rate_limit"
	StatePausedBackoff   State = "paused_backoff"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Checkpoint is the durable record of an in-progress action run. ConsumedIDs
// is the source of truth for idempotence: QueueCursor is advisory and may be
// stale after a crash, but an ID in ConsumedIDs is never acted on again.
type Checkpoint struct {
	Username        string          `json:"username"`
	QueueCursor     int             `json:"queue_cursor"`
	ConsumedIDs     map[string]bool `json:"consumed_ids"`
	LastActionAt    time.Time       `json:"last_action_at"`
	State           State           `json:"state"`
	RateLimitPauses int             `json:"rate_limit_pauses"`
	BackoffPauses   int             `json:"backoff_pauses"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// IsConsumed checks whether the action already applied to this ID.
func (c *Checkpoint) IsConsumed(id string) bool {
	return c.ConsumedIDs[id]
}

// MarkConsumed records a successfully applied action.
func (c *Checkpoint) MarkConsumed(id string) {
	if c.ConsumedIDs == nil {
		c.ConsumedIDs = make(map[string]bool)
	}
	c.ConsumedIDs[id] = true
}

// ConsumedCount returns how many actions the run has applied.
func (c *Checkpoint) ConsumedCount() int {
	return len(c.ConsumedIDs)
}

// Manager handles checkpoint persistence for one account.
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager rooted at dataDir.
func NewManager(dataDir, username string) (*Manager, error) {
	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", username)),
		logger:         logger.GetLogger(),
	}, nil
}

// Create creates and persists a fresh checkpoint in the idle state.
func (m *Manager) Create(username string) (*Checkpoint, error) {
	cp := &Checkpoint{
		Username:    username,
		QueueCursor: 0,
		ConsumedIDs: make(map[string]bool),
		State:       StateIdle,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Version:     1,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"username": username,
		"path":     m.checkpointPath,
	})

	return cp, nil
}

// Load loads an existing checkpoint, or nil if none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.ConsumedIDs == nil {
		cp.ConsumedIDs = make(map[string]bool)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"username":   cp.Username,
		"consumed":   len(cp.ConsumedIDs),
		"cursor":     cp.QueueCursor,
		"state":      string(cp.State),
		"updated_at": cp.UpdatedAt,
	})

	return &cp, nil
}

// LoadOrCreate resumes the last run or starts a fresh one. A checkpoint in a
// terminal state belongs to a finished run and is replaced.
func (m *Manager) LoadOrCreate(username string) (*Checkpoint, error) {
	cp, err := m.Load()
	if err != nil {
		return nil, err
	}
	if cp == nil || cp.State.Terminal() {
		return m.Create(username)
	}
	return cp, nil
}

// Save persists the checkpoint atomically. A crash mid-write never leaves a
// half-written file visible to the next run.
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"username": cp.Username,
		"consumed": len(cp.ConsumedIDs),
		"cursor":   cp.QueueCursor,
		"state":    string(cp.State),
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}
