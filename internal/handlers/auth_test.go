package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.users[user.Username]; exists {
		return repositories.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	user, ok := s.users[username]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, SignupWallet: 100}

	body, err := json.Marshal(credentialsRequest{Username: "newuser", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	stored, err := store.FindByUsername(context.Background(), "newuser")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}

	if stored.WalletBalance != 100 {
		t.Fatalf("expected signup wallet of 100, got %d", stored.WalletBalance)
	}
}

func TestAuthHandlerSignUpDuplicateUsername(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["taken"] = models.User{ID: "user-1", Username: "taken"}
	handler := AuthHandler{Users: store}

	body, err := json.Marshal(credentialsRequest{Username: "taken", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "user already exists" {
		t.Fatalf("unexpected error message %q", resp["error"])
	}
}

func TestAuthHandlerSignUpShortPassword(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore()}

	body, err := json.Marshal(credentialsRequest{Username: "newuser", Password: "short"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAuthHandlerSignIn(t *testing.T) {
	store := newInMemoryUserStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := AuthHandler{Users: store, Tokens: tokens}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["viewer"] = models.User{ID: "user-1", Username: "viewer", Password: string(hashed)}

	body, err := json.Marshal(credentialsRequest{Username: "viewer", Password: "password123"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignIn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp signInResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token to be issued")
	}

	identity, err := tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if identity.UserID != "user-1" || identity.Username != "viewer" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestAuthHandlerSignInWrongPassword(t *testing.T) {
	store := newInMemoryUserStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := AuthHandler{Users: store, Tokens: tokens}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["viewer"] = models.User{ID: "user-1", Username: "viewer", Password: string(hashed)}

	body, err := json.Marshal(credentialsRequest{Username: "viewer", Password: "wrong-password"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignIn(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "invalid credentials" {
		t.Fatalf("unexpected error message %q", resp["error"])
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestAuthHandlerSignUpRateLimited(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Limiter: denyAllLimiter{}}

	body, err := json.Marshal(credentialsRequest{Username: "newuser", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}
