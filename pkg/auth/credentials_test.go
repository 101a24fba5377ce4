package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test storing credentials
	account := &Account{
		Username:     "testuser",
		Password:     "test_password_12345",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	// Test sanitization
	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	// Test deletion
	err = manager.Delete("testuser")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("testuser")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestStoreRejectsIncompleteAccount(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Password: "pw"}); err == nil {
		t.Error("Expected error for missing username")
	}
	if err := manager.Store(&Account{Username: "user"}); err == nil {
		t.Error("Expected error for missing password")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	// Create a temporary file
	tempFile := filepath.Join(os.TempDir(), "test_creds.enc")
	defer os.Remove(tempFile)

	// Set test passphrase
	os.Setenv("IGUNFOLLOW_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("IGUNFOLLOW_PASSPHRASE")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	// Test operations
	account := &Account{
		Username: "encrypted_user",
		Password: "encrypted_password",
	}

	// Store
	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain the plaintext password
	if contains(fileContent, []byte("encrypted_password")) {
		t.Error("File contains plaintext password")
	}
}

func TestEnvironmentStore(t *testing.T) {
	// Set environment variables
	os.Setenv("IGUNFOLLOW_USERNAME", "env_user")
	os.Setenv("IGUNFOLLOW_PASSWORD", "env_password")
	defer os.Unsetenv("IGUNFOLLOW_USERNAME")
	defer os.Unsetenv("IGUNFOLLOW_PASSWORD")

	store := NewEnvironmentStore()

	// Test retrieve
	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.Username != "env_user" {
		t.Errorf("Username mismatch: got %s, want env_user", account.Username)
	}
	if account.Password != "env_password" {
		t.Errorf("Password mismatch: got %s, want env_password", account.Password)
	}

	// Retrieve for a different username must miss
	if _, err := store.Retrieve("someone_else"); err == nil {
		t.Error("Expected miss for a different username")
	}

	// Test that store is not supported
	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	// Create a temporary directory for testing
	tempDir, err := os.MkdirTemp("", "igunfollow-test-real")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	// Set passphrase for testing
	os.Setenv("IGUNFOLLOW_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("IGUNFOLLOW_PASSPHRASE")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	// Test storing credentials
	account := &Account{
		Username:     "realuser",
		Password:     "real_password",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("realuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	// Test storing and retrieving
	account := &Account{
		Username: "mockuser",
		Password: "mock_password",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mockuser") {
		t.Error("Account should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
