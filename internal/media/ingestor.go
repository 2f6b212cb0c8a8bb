package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// LinkMetadataUpdater persists resolved metadata for link-backed videos.
type LinkMetadataUpdater interface {
	SetLinkMetadata(ctx context.Context, id, thumbnail string, duration int64) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// Ingestor resolves thumbnail and duration details for link-backed videos in
// the background so uploads return immediately.
type Ingestor struct {
	provider Provider
	updater  LinkMetadataUpdater
	logger   *slog.Logger

	jobs   chan ingestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type ingestJob struct {
	videoID string
	url     string
}

var errIngestorClosed = errors.New("metadata ingestor closed")

// NewIngestor constructs a background worker pool that resolves link metadata.
func NewIngestor(provider Provider, updater LinkMetadataUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &Ingestor{
		provider: provider,
		updater:  updater,
		logger:   logger,
		jobs:     make(chan ingestJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules metadata resolution for the supplied video. Videos that
// are not link-backed are ignored.
func (i *Ingestor) Enqueue(ctx context.Context, video models.Video) error {
	if video.Source.ExternalURL == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	job := ingestJob{videoID: video.ID, url: video.Source.ExternalURL}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job, ok := <-i.jobs:
			if !ok {
				return
			}
			i.handleJob(job)
		}
	}
}

func (i *Ingestor) handleJob(job ingestJob) {
	if i.provider == nil || i.updater == nil {
		i.logger.Error("metadata ingestor missing dependencies", "hasProvider", i.provider != nil, "hasUpdater", i.updater != nil)
		return
	}

	lookupCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	metadata, err := i.provider.Lookup(lookupCtx, job.url)
	if err != nil {
		i.logger.Error("link metadata lookup failed", "videoId", job.videoID, "url", job.url, "error", err)
		return
	}

	updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.SetLinkMetadata(updateCtx, job.videoID, metadata.Thumbnail, metadata.Duration); err != nil {
		i.logger.Error("record link metadata", "videoId", job.videoID, "error", err)
	}
}
