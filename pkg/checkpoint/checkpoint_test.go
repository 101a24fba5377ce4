package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointManager(t *testing.T) {
	tempDir := t.TempDir()
	username := "testuser"

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(tempDir, username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if cp.State != StateIdle {
			t.Errorf("Expected idle state, got %s", cp.State)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Username != username {
			t.Errorf("Expected username %s, got %s", username, loaded.Username)
		}
	})

	t.Run("MarkConsumedSurvivesReload", func(t *testing.T) {
		mgr, err := NewManager(tempDir, username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		cp.MarkConsumed("1001")
		cp.MarkConsumed("1002")
		cp.QueueCursor = 2
		cp.State = StateRunning
		if err := mgr.Save(cp); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if !loaded.IsConsumed("1001") || !loaded.IsConsumed("1002") {
			t.Error("Expected consumed ids to survive reload")
		}
		if loaded.IsConsumed("1003") {
			t.Error("Expected 1003 to not be consumed")
		}
		if loaded.ConsumedCount() != 2 {
			t.Errorf("Expected 2 consumed, got %d", loaded.ConsumedCount())
		}
	})

	t.Run("LoadOrCreateReplacesTerminal", func(t *testing.T) {
		mgr, err := NewManager(tempDir, username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		cp.MarkConsumed("1001")
		cp.State = StateCompleted
		if err := mgr.Save(cp); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		fresh, err := mgr.LoadOrCreate(username)
		if err != nil {
			t.Fatalf("LoadOrCreate failed: %v", err)
		}
		if fresh.State != StateIdle {
			t.Errorf("Expected fresh idle checkpoint, got %s", fresh.State)
		}
		if fresh.IsConsumed("1001") {
			t.Error("Expected fresh checkpoint to drop consumed ids")
		}
	})

	t.Run("LoadOrCreateResumesRunning", func(t *testing.T) {
		mgr, err := NewManager(tempDir, username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(username)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		cp.MarkConsumed("2001")
		cp.State = StateRunning
		if err := mgr.Save(cp); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		resumed, err := mgr.LoadOrCreate(username)
		if err != nil {
			t.Fatalf("LoadOrCreate failed: %v", err)
		}
		if !resumed.IsConsumed("2001") {
			t.Error("Expected resumed checkpoint to keep consumed ids")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(tempDir, username)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if _, err := mgr.Create(username); err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if !mgr.Exists() {
			t.Fatal("Expected checkpoint to exist")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be gone")
		}
	})
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	tempDir := t.TempDir()
	mgr, err := NewManager(tempDir, "atomic")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if _, err := mgr.Create("atomic"); err != nil {
		t.Fatalf("Failed to create checkpoint: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(tempDir, "checkpoints"))
	if err != nil {
		t.Fatalf("Failed to read checkpoints dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("Found leftover temp file %s", e.Name())
		}
	}
}
