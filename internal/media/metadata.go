package media

import "context"

// Metadata captures the details clipstream keeps for link-backed videos.
type Metadata struct {
	Title     string
	Thumbnail string
	Duration  int64
}

// Provider returns metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}
