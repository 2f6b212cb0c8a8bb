package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned ingestor must be shut down when the server stops.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *media.Ingestor, error) {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	videoRepo := repositories.NewPostgresVideoRepository(pool)

	ytDlp := media.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout)
	metadataProvider := media.NewCachingProvider(ytDlp, cfg.MetadataCacheTTL)
	ingestor := media.NewIngestor(metadataProvider, videoRepo, media.IngestorConfig{QueueSize: 32, Workers: 2}, logger)

	var files handlers.FileStore
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		files = s3Store
	}

	authLimiter := middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute)

	return handlers.Dependencies{
		Users:        repositories.NewPostgresUserRepository(pool),
		Tokens:       tokens,
		Verifier:     tokens,
		Videos:       videoRepo,
		Engagement:   repositories.NewPostgresEngagementRepository(pool),
		Purchases:    repositories.NewPostgresPurchaseRepository(pool),
		Files:        files,
		Ingestor:     ingestor,
		AuthLimiter:  authLimiter,
		Feed:         handlers.FeedLimits{Default: cfg.FeedDefaultLimit, Max: cfg.FeedMaxLimit},
		MaxUpload:    cfg.UploadMaxBytes,
		SignupWallet: cfg.SignupWallet,
	}, ingestor, nil
}
