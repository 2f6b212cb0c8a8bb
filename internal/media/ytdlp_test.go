package media

import (
	"context"
	"testing"
	"time"
)

func TestYTDLPProviderLookup(t *testing.T) {
	provider := NewYTDLPProvider("yt-dlp", time.Second)
	provider.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		wantArgs := []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download", "https://example.com"}
		if len(args) != len(wantArgs) {
			t.Fatalf("unexpected args length: got %d want %d", len(args), len(wantArgs))
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		return []byte(`{"title":"Example","thumbnail":"thumb.jpg","duration":93.4}`), nil
	}

	meta, err := provider.Lookup(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if meta.Title != "Example" || meta.Thumbnail != "thumb.jpg" || meta.Duration != 93 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestYTDLPProviderLookupEmptyPayload(t *testing.T) {
	provider := NewYTDLPProvider("yt-dlp", time.Second)
	provider.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"title":"","thumbnail":"","duration":0}`), nil
	}

	if _, err := provider.Lookup(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error for empty metadata")
	}
}

func TestYTDLPProviderLookupBadJSON(t *testing.T) {
	provider := NewYTDLPProvider("yt-dlp", time.Second)
	provider.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`not-json`), nil
	}

	if _, err := provider.Lookup(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestYTDLPProviderDefaults(t *testing.T) {
	provider := NewYTDLPProvider("  ", 0)
	if provider.Binary != "yt-dlp" {
		t.Fatalf("expected default binary got %q", provider.Binary)
	}
	if provider.Timeout <= 0 {
		t.Fatalf("expected positive default timeout got %v", provider.Timeout)
	}
}
