package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// CommentHandler implements append-only commenting on videos.
type CommentHandler struct {
	Engagement EngagementStore
	NowFunc    func() time.Time
}

// List handles GET /api/v1/comments/{videoId} requests.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := r.PathValue("videoId")
	comments, err := h.Engagement.ListComments(ctx, videoID)
	if err != nil {
		logger.Error("list comments", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, newCommentView(comment.Comment, comment.AuthorName))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": views})
}

// Create handles POST /api/v1/comments/{videoId} requests.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(ctx, w, http.StatusBadRequest, "Comment text is required")
		return
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("comment must be at most %d characters", models.MaxCommentLength))
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   r.PathValue("videoId"),
		AuthorID:  identity.UserID,
		Text:      text,
		CreatedAt: h.now(),
	}

	if err := h.Engagement.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("create comment", "error", err, "videoId", comment.VideoID)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to post comment")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"comment": newCommentView(comment, identity.Username)})
}

type commentRequest struct {
	Text string `json:"text"`
}

type commentView struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	Author    author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func newCommentView(comment models.Comment, authorName string) commentView {
	return commentView{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		Author:    author{ID: comment.AuthorID, Username: authorName},
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
