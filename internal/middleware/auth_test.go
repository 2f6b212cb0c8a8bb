package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/auth"
)

func TestRequireAuthAttachesIdentity(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)
	token, err := manager.Issue("user-1", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity on context")
		}
		got = identity
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	RequireAuth(manager)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if got.UserID != "user-1" || got.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/feed", nil)
	rec := httptest.NewRecorder()

	RequireAuth(manager)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)
	issued := time.Now().UTC()
	manager.WithNowFunc(func() time.Time { return issued })

	token, err := manager.Issue("user-1", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.WithNowFunc(func() time.Time { return issued.Add(2 * time.Hour) })

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	RequireAuth(manager)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with a malformed header")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/feed", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()

	RequireAuth(manager)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
