package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGenerateKey(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	rawKey, key, err := mgr.GenerateKey(ctx, "Test key", []string{ScopeSanctionsRead}, 0)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	// Check raw key format
	if !strings.HasPrefix(rawKey, "sk_") {
		t.Errorf("Expected raw key to start with sk_, got %s", rawKey[:10])
	}
	if len(rawKey) != 67 { // "sk_" + 64 hex chars
		t.Errorf("Expected raw key length 67, got %d", len(rawKey))
	}

	// Check key metadata
	if !strings.HasPrefix(key.ID, "ak_") {
		t.Errorf("Expected key ID to start with ak_, got %s", key.ID)
	}
	if key.Name != "Test key" {
		t.Errorf("Expected name 'Test key', got %s", key.Name)
	}
	if len(key.Scopes) != 1 || key.Scopes[0] != ScopeSanctionsRead {
		t.Errorf("Expected scopes [%s], got %v", ScopeSanctionsRead, key.Scopes)
	}
	if key.ExpiresAt != nil {
		t.Error("Zero TTL should produce a non-expiring key")
	}
}

func TestGenerateKeyRejectsUnknownScope(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	if _, _, err := mgr.GenerateKey(ctx, "bad", []string{"everything"}, 0); err != ErrInvalidScope {
		t.Errorf("Expected ErrInvalidScope, got %v", err)
	}
	if _, _, err := mgr.GenerateKey(ctx, "empty", nil, 0); err != ErrInvalidScope {
		t.Errorf("Expected ErrInvalidScope for empty scopes, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	// Generate a key
	rawKey, _, err := mgr.GenerateKey(ctx, "Primary", []string{ScopeTronRead}, 0)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	// Validate with correct key
	key, err := mgr.ValidateKey(ctx, rawKey)
	if err != nil {
		t.Errorf("ValidateKey failed for valid key: %v", err)
	}
	if !key.HasScope(ScopeTronRead) {
		t.Errorf("Expected key to carry %s", ScopeTronRead)
	}

	// Validate with Bearer prefix
	if _, err = mgr.ValidateKey(ctx, "Bearer "+rawKey); err != nil {
		t.Errorf("ValidateKey failed with Bearer prefix: %v", err)
	}

	// Validate with wrong key
	_, err = mgr.ValidateKey(ctx, "sk_wrongkey12345678901234567890123456789012345678901234567890")
	if err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for wrong key, got: %v", err)
	}

	// Validate with empty key
	_, err = mgr.ValidateKey(ctx, "")
	if err != ErrNoAPIKey {
		t.Errorf("Expected ErrNoAPIKey for empty key, got: %v", err)
	}

	// Validate with malformed key
	_, err = mgr.ValidateKey(ctx, "not_a_valid_key")
	if err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for malformed key, got: %v", err)
	}
}

func TestValidateKeyExpired(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	rawKey, _, err := mgr.GenerateKey(ctx, "Short-lived", []string{ScopeWebRead}, time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := mgr.ValidateKey(ctx, rawKey); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for expired key, got: %v", err)
	}
}

func TestHasScope(t *testing.T) {
	key := &APIKey{Scopes: []string{ScopeSanctionsRead}}
	if !key.HasScope(ScopeSanctionsRead) {
		t.Error("Expected key to carry its own scope")
	}
	if key.HasScope(ScopeTronRead) {
		t.Error("Key must not carry a scope it was not granted")
	}

	admin := &APIKey{Scopes: []string{ScopeAdmin}}
	for _, s := range AllScopes {
		if !admin.HasScope(s) {
			t.Errorf("Admin scope should imply %s", s)
		}
	}
}

func TestListKeys(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	mgr.GenerateKey(ctx, "Key 1", []string{ScopeSanctionsRead}, 0)
	mgr.GenerateKey(ctx, "Key 2", []string{ScopeTronRead}, 0)
	mgr.GenerateKey(ctx, "Key 3", []string{ScopeAdmin}, 0)

	keys, err := mgr.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(keys))
	}
}

func TestRevokeKey(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	rawKey, key, _ := mgr.GenerateKey(ctx, "To revoke", []string{ScopeTasksWrite}, 0)

	// Validate before revoke
	if _, err := mgr.ValidateKey(ctx, rawKey); err != nil {
		t.Errorf("Key should be valid before revoke")
	}

	// Revoke
	if err := mgr.RevokeKey(ctx, key.ID); err != nil {
		t.Fatalf("RevokeKey failed: %v", err)
	}

	// Validate after revoke - should fail
	if _, err := mgr.ValidateKey(ctx, rawKey); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey after revoke, got: %v", err)
	}

	// Revoking an unknown ID fails
	if err := mgr.RevokeKey(ctx, "ak_missing"); err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestKeyHashNotExposed(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store)
	ctx := context.Background()

	rawKey, _, _ := mgr.GenerateKey(ctx, "Test", []string{ScopeSanctionsRead}, 0)

	// Get key via ValidateKey
	key, _ := mgr.ValidateKey(ctx, rawKey)

	// Hash should not equal raw key
	if key.Hash == rawKey {
		t.Error("Hash should not equal raw key")
	}

	// Hash should be set
	if key.Hash == "" {
		t.Error("Hash should be set")
	}
}
