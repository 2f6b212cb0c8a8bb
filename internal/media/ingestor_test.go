package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

type updaterStub struct {
	mu        sync.Mutex
	calls     []string
	thumbnail string
	duration  int64
	err       error
	done      chan struct{}
}

func (s *updaterStub) SetLinkMetadata(_ context.Context, id, thumbnail string, duration int64) error {
	s.mu.Lock()
	s.calls = append(s.calls, id)
	s.thumbnail = thumbnail
	s.duration = duration
	s.mu.Unlock()
	if s.done != nil {
		close(s.done)
	}
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestorResolvesLinkMetadata(t *testing.T) {
	provider := &stubProvider{metadata: Metadata{Title: "Example", Thumbnail: "thumb.jpg", Duration: 120}}
	updater := &updaterStub{done: make(chan struct{})}

	ingestor := NewIngestor(provider, updater, IngestorConfig{QueueSize: 1, Workers: 1}, discardLogger())
	defer shutdownIngestor(t, ingestor)

	video := models.Video{
		ID:     "video-1",
		Kind:   models.KindLongForm,
		Source: models.Source{ExternalURL: "https://example.com/watch"},
	}

	if err := ingestor.Enqueue(context.Background(), video); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-updater.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for metadata update")
	}

	updater.mu.Lock()
	defer updater.mu.Unlock()
	if len(updater.calls) != 1 || updater.calls[0] != "video-1" {
		t.Fatalf("unexpected update calls: %v", updater.calls)
	}
	if updater.thumbnail != "thumb.jpg" || updater.duration != 120 {
		t.Fatalf("unexpected metadata persisted: %q %d", updater.thumbnail, updater.duration)
	}
}

func TestIngestorSkipsFileBackedVideos(t *testing.T) {
	provider := &stubProvider{metadata: Metadata{Title: "Example"}}
	updater := &updaterStub{}

	ingestor := NewIngestor(provider, updater, IngestorConfig{}, discardLogger())
	defer shutdownIngestor(t, ingestor)

	video := models.Video{
		ID:     "video-2",
		Kind:   models.KindShortForm,
		Source: models.Source{FilePath: "clips/video-2.mp4"},
	}

	if err := ingestor.Enqueue(context.Background(), video); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if provider.calls != 0 {
		t.Fatalf("expected no lookups for file-backed video, got %d", provider.calls)
	}
}

func TestIngestorEnqueueAfterShutdown(t *testing.T) {
	provider := &stubProvider{}
	updater := &updaterStub{}

	ingestor := NewIngestor(provider, updater, IngestorConfig{}, discardLogger())
	shutdownIngestor(t, ingestor)

	video := models.Video{
		ID:     "video-3",
		Source: models.Source{ExternalURL: "https://example.com/watch"},
	}

	if err := ingestor.Enqueue(context.Background(), video); !errors.Is(err, errIngestorClosed) {
		t.Fatalf("expected errIngestorClosed got %v", err)
	}
}

func shutdownIngestor(t *testing.T, ingestor *Ingestor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ingestor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
