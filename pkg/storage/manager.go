package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"igunfollow/pkg/models"
)

const (
	followingFile  = "following.json"
	followersFile  = "followers.json"
	queueFile      = "queue.json"
	exclusionsFile = "whitelist.json"
)

// Manager owns the data directory holding snapshots, the action queue and
// the whitelist. All writes go through a temporary file and an atomic
// rename, so a reader never observes a partial file.
type Manager struct {
	dataDir string
}

// NewManager creates a storage manager rooted at dataDir. An empty dataDir
// resolves to the platform data directory.
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		var err error
		dataDir, err = DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Manager{dataDir: dataDir}, nil
}

// DataDir returns the resolved data directory.
func (m *Manager) DataDir() string {
	return m.dataDir
}

// SaveSnapshot persists a collection snapshot.
func (m *Manager) SaveSnapshot(s *models.Snapshot) error {
	name := followingFile
	if s.Source == models.SourceFollowers {
		name = followersFile
	}
	return m.writeJSON(filepath.Join(m.dataDir, name), s)
}

// LoadSnapshot loads the last persisted snapshot for a source, or nil if
// none has been collected yet.
func (m *Manager) LoadSnapshot(source models.SnapshotSource) (*models.Snapshot, error) {
	name := followingFile
	if source == models.SourceFollowers {
		name = followersFile
	}

	data, err := os.ReadFile(filepath.Join(m.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s snapshot: %w", source, err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", source, err)
	}
	return &snapshot, nil
}

// SaveQueue persists the reconciled action queue.
func (m *Manager) SaveQueue(q *models.ActionQueue) error {
	return m.writeJSON(filepath.Join(m.dataDir, queueFile), q)
}

// LoadQueue loads the last persisted action queue, or nil if none exists.
func (m *Manager) LoadQueue() (*models.ActionQueue, error) {
	data, err := os.ReadFile(filepath.Join(m.dataDir, queueFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read action queue: %w", err)
	}

	var queue models.ActionQueue
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("failed to decode action queue: %w", err)
	}
	return &queue, nil
}

// LoadExclusions loads the whitelist. The file is either a plain array of
// usernames/ids or the {"whitelist": [...]} shape the original config used.
// A missing file is an empty whitelist, not an error.
func (m *Manager) LoadExclusions() (*models.ExclusionSet, error) {
	data, err := os.ReadFile(filepath.Join(m.dataDir, exclusionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewExclusionSet(nil), nil
		}
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err == nil {
		return models.NewExclusionSet(entries), nil
	}

	var wrapped struct {
		Whitelist []string `json:"whitelist"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode whitelist: %w", err)
	}
	return models.NewExclusionSet(wrapped.Whitelist), nil
}

// SaveExclusions persists the whitelist in the plain array shape.
func (m *Manager) SaveExclusions(entries []string) error {
	return m.writeJSON(filepath.Join(m.dataDir, exclusionsFile), entries)
}

// writeJSON writes v to path via a temporary file and an atomic rename.
func (m *Manager) writeJSON(path string, v interface{}) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	return nil
}

// DefaultDataDir returns the appropriate data directory for the current OS.
func DefaultDataDir() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igunfollow")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igunfollow")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igunfollow")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igunfollow")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return dataDir, nil
}
