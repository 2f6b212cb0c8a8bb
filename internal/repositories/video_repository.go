package repositories

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// VideoWithCreator pairs a catalog entry with its creator's display identity.
type VideoWithCreator struct {
	models.Video
	CreatorName string
}

// ReelEntry is a reel video enriched with its like count.
type ReelEntry struct {
	VideoWithCreator
	LikesCount int64
}

// FeedPage describes one slice of the reverse-chronological catalog.
// Ordering is (uploaded_at DESC, id DESC); the id tie-break keeps pages
// stable when upload timestamps collide.
type FeedPage struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before this page.
func (p FeedPage) Offset() int {
	return (p.Page - 1) * p.Limit
}

// VideoRepository exposes data access for the video catalog.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (VideoWithCreator, error)
	ListAll(ctx context.Context) ([]models.Video, error)
	ListFeed(ctx context.Context, page FeedPage) ([]VideoWithCreator, error)
	ListReels(ctx context.Context) ([]ReelEntry, error)
	Delete(ctx context.Context, id string) error
	SetLinkMetadata(ctx context.Context, id, thumbnail string, duration int64) error
}

// Liker describes a user who liked a video.
type Liker struct {
	UserID   string
	Username string
	LikedAt  time.Time
}

// CommentWithAuthor pairs a comment with its author's display identity.
type CommentWithAuthor struct {
	models.Comment
	AuthorName string
}

// EngagementRepository exposes like and comment persistence.
type EngagementRepository interface {
	ToggleLike(ctx context.Context, userID, videoID string) (liked bool, likes int64, err error)
	HasLiked(ctx context.Context, userID, videoID string) (bool, error)
	CountLikes(ctx context.Context, videoID string) (int64, error)
	ListLikers(ctx context.Context, videoID string) ([]Liker, error)
	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]CommentWithAuthor, error)
}

// PurchaseRepository exposes the entitlement ledger.
type PurchaseRepository interface {
	Purchase(ctx context.Context, purchase models.Purchase, price int64) (wallet int64, already bool, err error)
	HasPurchased(ctx context.Context, userID, videoID string) (bool, error)
}
