package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipstream/backend/internal/auth"
)

func postComment(t *testing.T, handler CommentHandler, videoID, userID, text string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(commentRequest{Text: text})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := authedRequest(http.MethodPost, "/api/v1/comments/"+videoID, bytes.NewReader(body), auth.Identity{UserID: userID, Username: "ava"})
	req.SetPathValue("videoId", videoID)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)
	return rec
}

func TestCommentHandlerCreate(t *testing.T) {
	engagement := newFakeEngagementStore("video-1")
	handler := CommentHandler{Engagement: engagement}

	rec := postComment(t, handler, "video-1", "user-1", "Great clip!")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Comment commentView `json:"comment"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Comment.Text != "Great clip!" {
		t.Fatalf("unexpected comment text %q", resp.Comment.Text)
	}
	if resp.Comment.Author.ID != "user-1" || resp.Comment.Author.Username != "ava" {
		t.Fatalf("unexpected author %+v", resp.Comment.Author)
	}
	if len(engagement.comments["video-1"]) != 1 {
		t.Fatalf("expected one stored comment, got %d", len(engagement.comments["video-1"]))
	}
}

func TestCommentHandlerCreateLengthBound(t *testing.T) {
	engagement := newFakeEngagementStore("video-1")
	handler := CommentHandler{Engagement: engagement}

	rec := postComment(t, handler, "video-1", "user-1", strings.Repeat("a", 1000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("1000-character comment should be accepted, got %d", rec.Code)
	}

	rec = postComment(t, handler, "video-1", "user-1", strings.Repeat("a", 1001))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("1001-character comment should be rejected, got %d", rec.Code)
	}

	// The bound is characters, not bytes.
	rec = postComment(t, handler, "video-1", "user-1", strings.Repeat("あ", 1000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("1000-character multibyte comment should be accepted, got %d", rec.Code)
	}

	rec = postComment(t, handler, "video-1", "user-1", strings.Repeat("あ", 1001))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("1001-character multibyte comment should be rejected, got %d", rec.Code)
	}
}

func TestCommentHandlerCreateRequiresText(t *testing.T) {
	handler := CommentHandler{Engagement: newFakeEngagementStore("video-1")}

	rec := postComment(t, handler, "video-1", "user-1", "   ")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCommentHandlerCreateUnknownVideo(t *testing.T) {
	handler := CommentHandler{Engagement: newFakeEngagementStore()}

	rec := postComment(t, handler, "missing", "user-1", "hello")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentHandlerListNewestFirst(t *testing.T) {
	engagement := newFakeEngagementStore("video-1")
	handler := CommentHandler{Engagement: engagement}

	for _, text := range []string{"first", "second", "third"} {
		rec := postComment(t, handler, "video-1", "user-1", text)
		if rec.Code != http.StatusCreated {
			t.Fatalf("post %q: %d %s", text, rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/video-1", nil)
	req.SetPathValue("videoId", "video-1")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Comments []commentView `json:"comments"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(resp.Comments))
	}
	if resp.Comments[0].Text != "third" || resp.Comments[2].Text != "first" {
		t.Fatalf("expected newest-first ordering, got %q, %q, %q",
			resp.Comments[0].Text, resp.Comments[1].Text, resp.Comments[2].Text)
	}
}
