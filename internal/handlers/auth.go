package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// AuthHandler implements user signup and signin endpoints.
type AuthHandler struct {
	Users        UserStore
	Tokens       TokenIssuer
	Limiter      RateLimiter
	SignupWallet int64
	NowFunc      func() time.Time
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signup") {
		logger.Warn("signup rate limited")
		respondError(ctx, w, http.StatusTooManyRequests, "too many signup attempts")
		return
	}

	if h.Users == nil {
		logger.Error("user store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		logger.Warn("signup missing credentials", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	if len(req.Password) < 8 {
		logger.Warn("signup password too short", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Password:      string(hashed),
		WalletBalance: h.SignupWallet,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup duplicate username", "username", req.Username)
			respondError(ctx, w, http.StatusBadRequest, "user already exists")
			return
		}
		logger.Error("signup failed to create user", "error", err, "username", req.Username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

// SignIn handles POST /api/v1/auth/signin requests.
func (h AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signin") {
		logger.Warn("signin rate limited")
		respondError(ctx, w, http.StatusTooManyRequests, "too many signin attempts")
		return
	}

	if h.Users == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signin payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		logger.Warn("signin missing credentials", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		logger.Warn("signin user lookup failed", "username", req.Username, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("signin password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		logger.Error("failed to issue token", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, signInResponse{Token: token, Message: "Signin successful"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
