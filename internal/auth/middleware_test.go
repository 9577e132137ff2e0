package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiddlewareTest(scopes ...string) (*Manager, string, *APIKey) {
	if len(scopes) == 0 {
		scopes = []string{ScopeSanctionsRead}
	}
	store := NewMemoryStore()
	mgr := NewManager(store)
	rawKey, key, _ := mgr.GenerateKey(context.Background(), "test-key", scopes, 0)
	return mgr, rawKey, key
}

// --- Middleware() ---

func TestMiddleware_ValidKey_SetsContext(t *testing.T) {
	mgr, rawKey, _ := setupMiddlewareTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Request.Header.Set("Authorization", rawKey)

	handler := Middleware(mgr)
	handler(c)

	key, exists := c.Get(ContextKeyAPIKey)
	if !exists {
		t.Fatal("Expected API key to be set in context")
	}
	if key.(*APIKey).Name != "test-key" {
		t.Errorf("Expected key name 'test-key', got %s", key.(*APIKey).Name)
	}
}

func TestMiddleware_ValidKeyViaXAPIKey(t *testing.T) {
	mgr, rawKey, _ := setupMiddlewareTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Request.Header.Set("X-API-Key", rawKey)

	Middleware(mgr)(c)

	if _, exists := c.Get(ContextKeyAPIKey); !exists {
		t.Error("Expected API key set via X-API-Key header")
	}
}

func TestMiddleware_InvalidKey_DoesNotAbort(t *testing.T) {
	mgr, _, _ := setupMiddlewareTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Request.Header.Set("Authorization", "sk_invalidkey000000000000000000000000000000000000000000000000000000")

	Middleware(mgr)(c)

	// Should NOT set context
	if _, exists := c.Get(ContextKeyAPIKey); exists {
		t.Error("Expected API key NOT to be set for invalid key")
	}

	// Should NOT abort (soft auth)
	if c.IsAborted() {
		t.Error("Middleware should not abort on invalid key")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 (pass-through), got %d", w.Code)
	}
}

func TestMiddleware_MissingHeader_PassesThrough(t *testing.T) {
	mgr, _, _ := setupMiddlewareTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)

	Middleware(mgr)(c)

	if _, exists := c.Get(ContextKeyAPIKey); exists {
		t.Error("Expected no API key in context when header missing")
	}
	if c.IsAborted() {
		t.Error("Middleware should not abort when header missing")
	}
}

func TestMiddleware_RevokedKey_DoesNotSetContext(t *testing.T) {
	mgr, rawKey, key := setupMiddlewareTest()
	_ = mgr.RevokeKey(context.Background(), key.ID)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Request.Header.Set("Authorization", rawKey)

	Middleware(mgr)(c)

	if _, exists := c.Get(ContextKeyAPIKey); exists {
		t.Error("Expected revoked key NOT to set context")
	}
	if c.IsAborted() {
		t.Error("Middleware should not abort on revoked key")
	}
}

// --- RequireScope() ---

func TestRequireScope_NoAuth_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)

	RequireScope(ScopeSanctionsRead)(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("Expected request to be aborted")
	}
}

func TestRequireScope_MissingScope_Returns403(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Set(ContextKeyAPIKey, &APIKey{Scopes: []string{ScopeSanctionsRead}})

	RequireScope(ScopeTronRead)(c)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

func TestRequireScope_MatchingScope_Passes(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Set(ContextKeyAPIKey, &APIKey{Scopes: []string{ScopeTronRead}})

	RequireScope(ScopeTronRead)(c)

	if c.IsAborted() {
		t.Error("Expected request to pass when scope matches")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestRequireScope_AdminImpliesAll(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	c.Set(ContextKeyAPIKey, &APIKey{Scopes: []string{ScopeAdmin}})

	RequireScope(ScopeTasksWrite)(c)

	if c.IsAborted() {
		t.Error("Expected admin-scoped key to pass any scope check")
	}
}

// --- RequireAdmin() ---

func TestRequireAdmin_CorrectSecret(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/admin/keys", nil)
	c.Request.Header.Set("X-Admin-Secret", "supersecret123")

	RequireAdmin("supersecret123")(c)

	if c.IsAborted() {
		t.Error("Expected correct admin secret to pass")
	}
}

func TestRequireAdmin_WrongSecret(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/admin/keys", nil)
	c.Request.Header.Set("X-Admin-Secret", "wrongsecret")

	RequireAdmin("supersecret123")(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong secret, got %d", w.Code)
	}
}

func TestRequireAdmin_AdminScopedKey(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/admin/keys", nil)
	c.Set(ContextKeyAPIKey, &APIKey{Scopes: []string{ScopeAdmin}})

	RequireAdmin("supersecret123")(c)

	if c.IsAborted() {
		t.Error("Expected admin-scoped key to pass without the secret")
	}
}

func TestRequireAdmin_NonAdminKey(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/admin/keys", nil)
	c.Set(ContextKeyAPIKey, &APIKey{Scopes: []string{ScopeSanctionsRead}})

	RequireAdmin("supersecret123")(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for non-admin key, got %d", w.Code)
	}
}

func TestRequireAdmin_EmptySecretRejectsHeader(t *testing.T) {
	// With no secret configured, the header path must never match.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/admin/keys", nil)
	c.Request.Header.Set("X-Admin-Secret", "")

	RequireAdmin("")(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 when no admin secret configured, got %d", w.Code)
	}
}

// --- Helper functions ---

func TestGetAPIKey_Present(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	expected := &APIKey{ID: "ak_test"}
	c.Set(ContextKeyAPIKey, expected)

	key, ok := GetAPIKey(c)
	if !ok {
		t.Fatal("Expected GetAPIKey to return true")
	}
	if key.ID != "ak_test" {
		t.Errorf("Expected key ID ak_test, got %s", key.ID)
	}
}

func TestGetAPIKey_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := GetAPIKey(c)
	if ok {
		t.Error("Expected GetAPIKey to return false when no key in context")
	}
}

func TestIsAuthenticated_True(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextKeyAPIKey, &APIKey{})

	if !IsAuthenticated(c) {
		t.Error("Expected IsAuthenticated to return true")
	}
}

func TestIsAuthenticated_False(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if IsAuthenticated(c) {
		t.Error("Expected IsAuthenticated to return false")
	}
}
