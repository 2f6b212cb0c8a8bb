package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// FeedLimits bound the caller-supplied pagination parameters.
type FeedLimits struct {
	Default int
	Max     int
}

func (l FeedLimits) clamp(limit int) int {
	if l.Default <= 0 {
		l.Default = 10
	}
	if l.Max <= 0 {
		l.Max = 50
	}
	if limit <= 0 {
		return l.Default
	}
	if limit > l.Max {
		return l.Max
	}
	return limit
}

// VideoHandler provides catalog, feed, and like endpoints.
type VideoHandler struct {
	Videos     VideoStore
	Engagement EngagementStore
	Files      FileStore
	Ingestor   MetadataIngestor
	Limits     FeedLimits
	MaxUpload  int64
	NowFunc    func() time.Time
}

var externalURLPattern = regexp.MustCompile(`^https?://.+`)

// List handles GET /api/v1/videos requests.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.ListAll(ctx)
	if err != nil {
		logger.Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch videos")
		return
	}

	views := make([]videoView, 0, len(videos))
	for _, video := range videos {
		views = append(views, newVideoView(video, "", nil))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": views})
}

// Feed handles GET /api/v1/videos/feed requests.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	limit = h.Limits.clamp(limit)

	entries, err := h.Videos.ListFeed(ctx, repositories.FeedPage{Page: page, Limit: limit})
	if err != nil {
		logger.Error("list feed", "error", err, "page", page, "limit", limit)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	views := make([]videoView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newVideoView(entry.Video, entry.CreatorName, nil))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": views, "page": page})
}

// Reels handles GET /api/v1/videos/reels requests.
func (h VideoHandler) Reels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	reels, err := h.Videos.ListReels(ctx)
	if err != nil {
		logger.Error("list reels", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch reels")
		return
	}

	views := make([]videoView, 0, len(reels))
	for _, reel := range reels {
		count := reel.LikesCount
		views = append(views, newVideoView(reel.Video, reel.CreatorName, &count))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": views})
}

// Get handles GET /api/v1/videos/{id} requests.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	entry, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("find video", "error", err, "videoId", r.PathValue("id"))
		respondError(ctx, w, http.StatusInternalServerError, "server error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": newVideoView(entry.Video, entry.CreatorName, nil)})
}

// Upload handles POST /api/v1/videos/upload requests.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	maxBytes := h.MaxUpload
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	// Allow some slack for the non-file form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+512*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		logger.Warn("invalid upload form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid or oversized upload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	kindValue := r.FormValue("videoType")
	if title == "" || kindValue == "" {
		respondError(ctx, w, http.StatusBadRequest, "Title and videoType are required")
		return
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("title must be at most %d characters", models.MaxTitleLength))
		return
	}

	kind, ok := models.ParseVideoKind(kindValue)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "unknown videoType")
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if utf8.RuneCountInString(description) > models.MaxCommentLength {
		respondError(ctx, w, http.StatusBadRequest, fmt.Sprintf("description must be at most %d characters", models.MaxCommentLength))
		return
	}

	var price int64
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, http.StatusBadRequest, "price must be a non-negative number")
			return
		}
		price = parsed
	}
	// Only long-form videos are sold; a price on any other kind is dropped.
	if kind != models.KindLongForm {
		price = 0
	}

	var duration int64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number")
			return
		}
		duration = parsed
	}

	video := models.Video{
		ID:          uuid.NewString(),
		CreatorID:   identity.UserID,
		Title:       title,
		Description: description,
		Kind:        kind,
		Duration:    duration,
		Price:       price,
		UploadedAt:  h.now(),
	}

	switch kind {
	case models.KindShortForm:
		file, header, err := r.FormFile("videoFile")
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "Video file is required for Short-Form")
			return
		}
		defer file.Close()

		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".mp4" {
			respondError(ctx, w, http.StatusBadRequest, "Only .mp4 files are allowed")
			return
		}
		if header.Size > maxBytes {
			respondError(ctx, w, http.StatusBadRequest, "video file exceeds the upload size limit")
			return
		}
		if h.Files == nil {
			logger.Error("file store unavailable")
			respondError(ctx, w, http.StatusInternalServerError, "upload storage unavailable")
			return
		}

		location, err := h.Files.Save(ctx, fmt.Sprintf("video-%s.mp4", video.ID), file)
		if err != nil {
			logger.Error("store uploaded file", "error", err, "videoId", video.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store video file")
			return
		}
		video.Source.FilePath = location
	case models.KindLongForm, models.KindReel:
		url := strings.TrimSpace(r.FormValue("videoUrl"))
		if url == "" {
			respondError(ctx, w, http.StatusBadRequest, "Video URL is required for Long-Form videos/Reel videos")
			return
		}
		if !externalURLPattern.MatchString(url) {
			respondError(ctx, w, http.StatusBadRequest, "videoUrl is not a valid URL")
			return
		}
		video.Source.ExternalURL = url
	}

	if err := models.ValidateSource(video.Kind, video.Source, video.Price); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video", "error", err, "videoId", video.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to save video")
		return
	}

	if h.Ingestor != nil && video.Source.ExternalURL != "" {
		if err := h.Ingestor.Enqueue(ctx, video); err != nil {
			logger.Warn("enqueue link metadata", "error", err, "videoId", video.ID)
		}
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"message": "Video uploaded successfully",
		"video":   newVideoView(video, identity.Username, nil),
	})
}

// Delete handles DELETE /api/v1/videos/{id} requests.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	videoID := r.PathValue("id")
	entry, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("find video for delete", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "server error")
		return
	}

	if entry.CreatorID != identity.UserID {
		logger.Warn("delete forbidden", "videoId", videoID, "userId", identity.UserID)
		respondError(ctx, w, http.StatusForbidden, "You are not authorized to delete this video")
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("delete video", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "server error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

// ToggleLike handles POST /api/v1/videos/{id}/like requests.
func (h VideoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	videoID := r.PathValue("id")
	liked, count, err := h.Engagement.ToggleLike(ctx, identity.UserID, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("toggle like", "error", err, "videoId", videoID, "userId", identity.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to like/unlike video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeStatusResponse{Liked: liked, LikesCount: count})
}

// Likers handles GET /api/v1/videos/{id}/likes requests.
func (h VideoHandler) Likers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := r.PathValue("id")
	likers, err := h.Engagement.ListLikers(ctx, videoID)
	if err != nil {
		logger.Error("list likers", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to fetch likes")
		return
	}

	views := make([]likerView, 0, len(likers))
	for _, liker := range likers {
		views = append(views, likerView{
			UserID:   liker.UserID,
			Username: liker.Username,
			LikedAt:  liker.LikedAt,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"likes": views})
}

// LikeCheck handles GET /api/v1/videos/{id}/like/check requests.
func (h VideoHandler) LikeCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "no token provided")
		return
	}

	videoID := r.PathValue("id")
	liked, err := h.Engagement.HasLiked(ctx, identity.UserID, videoID)
	if err != nil {
		logger.Error("check like", "error", err, "videoId", videoID, "userId", identity.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to check like status")
		return
	}

	count, err := h.Engagement.CountLikes(ctx, videoID)
	if err != nil {
		logger.Error("count likes", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to check like status")
		return
	}

	respondJSON(ctx, w, http.StatusOK, likeStatusResponse{Liked: liked, LikesCount: count})
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type likeStatusResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

type likerView struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	LikedAt  time.Time `json:"likedAt"`
}

type creatorView struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type videoView struct {
	ID            string      `json:"id"`
	Creator       creatorView `json:"creator"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	VideoType     string      `json:"videoType"`
	VideoFilePath string      `json:"videoFilePath,omitempty"`
	VideoURL      string      `json:"videoUrl,omitempty"`
	Thumbnail     string      `json:"thumbnail,omitempty"`
	Duration      int64       `json:"duration"`
	Price         int64       `json:"price"`
	UploadedAt    time.Time   `json:"uploadedAt"`
	LikesCount    *int64      `json:"likesCount,omitempty"`
}

func newVideoView(video models.Video, creatorName string, likes *int64) videoView {
	return videoView{
		ID:            video.ID,
		Creator:       creatorView{ID: video.CreatorID, Username: creatorName},
		Title:         video.Title,
		Description:   video.Description,
		VideoType:     video.Kind.Label(),
		VideoFilePath: video.Source.FilePath,
		VideoURL:      video.Source.ExternalURL,
		Thumbnail:     video.Thumbnail,
		Duration:      video.Duration,
		Price:         video.Price,
		UploadedAt:    video.UploadedAt,
		LikesCount:    likes,
	}
}
