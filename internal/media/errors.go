package media

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("link metadata provider unavailable")
)
