package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// VideoStore captures persistence for the video catalog.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (repositories.VideoWithCreator, error)
	ListAll(ctx context.Context) ([]models.Video, error)
	ListFeed(ctx context.Context, page repositories.FeedPage) ([]repositories.VideoWithCreator, error)
	ListReels(ctx context.Context) ([]repositories.ReelEntry, error)
	Delete(ctx context.Context, id string) error
}

// EngagementStore captures like and comment persistence.
type EngagementStore interface {
	ToggleLike(ctx context.Context, userID, videoID string) (bool, int64, error)
	HasLiked(ctx context.Context, userID, videoID string) (bool, error)
	CountLikes(ctx context.Context, videoID string) (int64, error)
	ListLikers(ctx context.Context, videoID string) ([]repositories.Liker, error)
	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, videoID string) ([]repositories.CommentWithAuthor, error)
}

// PurchaseStore captures the entitlement ledger operations.
type PurchaseStore interface {
	Purchase(ctx context.Context, purchase models.Purchase, price int64) (wallet int64, already bool, err error)
	HasPurchased(ctx context.Context, userID, videoID string) (bool, error)
}

// FileStore persists uploaded video files and returns their public location.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// MetadataIngestor schedules background metadata resolution for link-backed videos.
type MetadataIngestor interface {
	Enqueue(ctx context.Context, video models.Video) error
}
