package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PurchaseHandler implements the entitlement endpoints.
type PurchaseHandler struct {
	Videos    VideoStore
	Purchases PurchaseStore
	NowFunc   func() time.Time
}

// Purchase handles POST /api/v1/purchase/{videoId} requests.
//
// Only long-form videos are purchasable. A repeat purchase is reported as
// success without touching the wallet; the debit and the entitlement insert
// are one transaction inside the purchase store.
func (h PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	videoID := r.PathValue("videoId")
	entry, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found or not purchasable")
			return
		}
		logger.Error("find video for purchase", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "Purchase failed")
		return
	}

	if !entry.Purchasable() {
		respondError(ctx, w, http.StatusNotFound, "Video not found or not purchasable")
		return
	}

	purchase := models.Purchase{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		VideoID:     videoID,
		PurchasedAt: h.now(),
	}

	wallet, already, err := h.Purchases.Purchase(ctx, purchase, entry.Price)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientFunds):
			respondError(ctx, w, http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, repositories.ErrConflict):
			// Lost a race with a concurrent purchase of the same pair; the
			// entitlement exists, so report it as already purchased.
			respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Already purchased"})
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "User not found")
		default:
			logger.Error("purchase failed", "error", err, "videoId", videoID, "userId", identity.UserID)
			respondError(ctx, w, http.StatusInternalServerError, "Purchase failed")
		}
		return
	}

	message := "Purchase successful"
	if already {
		message = "Already purchased"
	}

	respondJSON(ctx, w, http.StatusOK, purchaseResponse{Message: message, Wallet: wallet})
}

// Check handles GET /api/v1/purchase/check/{videoId} requests. Free videos
// are always entitled without an entitlement record.
func (h PurchaseHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	videoID := r.PathValue("videoId")
	entry, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("find video for entitlement check", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to check purchase")
		return
	}

	if entry.Free() {
		respondJSON(ctx, w, http.StatusOK, map[string]bool{"purchased": true})
		return
	}

	purchased, err := h.Purchases.HasPurchased(ctx, identity.UserID, videoID)
	if err != nil {
		logger.Error("check purchase", "error", err, "videoId", videoID, "userId", identity.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to check purchase")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"purchased": purchased})
}

type purchaseResponse struct {
	Message string `json:"message"`
	Wallet  int64  `json:"wallet"`
}

func (h PurchaseHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
