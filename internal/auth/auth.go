// Package auth provides API authentication for the screening gateway.
//
// Authentication model:
// - Health and metrics endpoints: No auth required
// - Screening endpoints: Require an API key carrying the matching scope
// - Keys are issued through the admin API, bootstrapped by ADMIN_SECRET
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/idgen"
)

// Errors
var (
	ErrNoAPIKey      = errors.New("API key required")
	ErrInvalidAPIKey = errors.New("invalid or expired API key")
	ErrMissingScope  = errors.New("API key lacks the required scope")
	ErrKeyNotFound   = errors.New("API key not found")
	ErrInvalidScope  = errors.New("unknown scope")
)

// Scopes grantable to API keys.
const (
	ScopeSanctionsRead = "sanctions:read"
	ScopeTronRead      = "tron:read"
	ScopeWebRead       = "web:read"
	ScopeTasksWrite    = "tasks:write"
	ScopeAdmin         = "admin"
)

// AllScopes lists every grantable scope.
var AllScopes = []string{
	ScopeSanctionsRead,
	ScopeTronRead,
	ScopeWebRead,
	ScopeTasksWrite,
	ScopeAdmin,
}

// APIKey represents an API key
type APIKey struct {
	ID        string     `json:"id"`
	Hash      string     `json:"-"` // SHA256 hash of key (stored)
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"createdAt"`
	LastUsed  time.Time  `json:"lastUsed,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Revoked   bool       `json:"revoked"`
}

// HasScope reports whether the key carries the scope. The admin scope
// implies every other scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// Store persists API keys
type Store interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	List(ctx context.Context) ([]*APIKey, error)
	Update(ctx context.Context, key *APIKey) error
	Delete(ctx context.Context, id string) error
}

// Manager handles authentication
type Manager struct {
	store Store
}

// NewManager creates a new auth manager
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// GenerateKey creates a new API key with the given scopes.
// Returns the raw key (shown once) and the stored metadata.
func (m *Manager) GenerateKey(ctx context.Context, name string, scopes []string, ttl time.Duration) (rawKey string, key *APIKey, err error) {
	if len(scopes) == 0 {
		return "", nil, ErrInvalidScope
	}
	for _, s := range scopes {
		if !validScope(s) {
			return "", nil, ErrInvalidScope
		}
	}

	// Raw key is shown once; only the hash is stored
	rawKey = "sk_" + idgen.Hex(32)

	key = &APIKey{
		ID:        idgen.WithPrefix("ak_"),
		Hash:      hashKey(rawKey),
		Name:      name,
		Scopes:    scopes,
		CreatedAt: time.Now(),
	}
	if ttl > 0 {
		expires := key.CreatedAt.Add(ttl)
		key.ExpiresAt = &expires
	}

	if err := m.store.Create(ctx, key); err != nil {
		return "", nil, err
	}

	return rawKey, key, nil
}

// ValidateKey validates an API key and returns the key metadata
func (m *Manager) ValidateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if rawKey == "" {
		return nil, ErrNoAPIKey
	}

	// Clean the key
	rawKey = strings.TrimPrefix(rawKey, "Bearer ")
	rawKey = strings.TrimSpace(rawKey)

	if !strings.HasPrefix(rawKey, "sk_") {
		return nil, ErrInvalidAPIKey
	}

	// Look up by hash
	hash := hashKey(rawKey)
	key, err := m.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}

	// Check revoked
	if key.Revoked {
		return nil, ErrInvalidAPIKey
	}

	// Check expired
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, ErrInvalidAPIKey
	}

	// Update last used (fire and forget)
	go func() {
		key.LastUsed = time.Now()
		m.store.Update(context.Background(), key)
	}()

	return key, nil
}

// ListKeys returns all issued keys
func (m *Manager) ListKeys(ctx context.Context) ([]*APIKey, error) {
	return m.store.List(ctx)
}

// RevokeKey revokes an API key by ID
func (m *Manager) RevokeKey(ctx context.Context, keyID string) error {
	keys, err := m.store.List(ctx)
	if err != nil {
		return err
	}

	for _, k := range keys {
		if k.ID == keyID {
			k.Revoked = true
			return m.store.Update(ctx, k)
		}
	}

	return ErrKeyNotFound
}

func validScope(scope string) bool {
	for _, s := range AllScopes {
		if s == scope {
			return true
		}
	}
	return false
}

func hashKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey // by ID
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*APIKey),
	}
}

func (s *MemoryStore) Create(ctx context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = key
	return nil
}

func (s *MemoryStore) GetByHash(ctx context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.Hash == hash {
			return k, nil
		}
	}
	return nil, ErrKeyNotFound
}

func (s *MemoryStore) List(ctx context.Context) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*APIKey, 0, len(s.keys))
	for _, k := range s.keys {
		result = append(result, k)
	}
	return result, nil
}

func (s *MemoryStore) Update(ctx context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = key
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}
