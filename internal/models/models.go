package models

import (
	"errors"
	"strings"
	"time"
)

// User represents an account on the clipstream platform.
type User struct {
	ID            string
	Username      string
	Password      string
	WalletBalance int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VideoKind discriminates the catalog variants.
type VideoKind string

const (
	KindShortForm VideoKind = "short_form"
	KindLongForm  VideoKind = "long_form"
	KindReel      VideoKind = "reel"
)

// ParseVideoKind maps the wire-format kind labels onto VideoKind.
func ParseVideoKind(s string) (VideoKind, bool) {
	switch strings.TrimSpace(s) {
	case "Short-Form", string(KindShortForm):
		return KindShortForm, true
	case "Long-Form", string(KindLongForm):
		return KindLongForm, true
	case "Reel", string(KindReel):
		return KindReel, true
	}
	return "", false
}

// Label returns the client-facing spelling of the kind.
func (k VideoKind) Label() string {
	switch k {
	case KindShortForm:
		return "Short-Form"
	case KindLongForm:
		return "Long-Form"
	case KindReel:
		return "Reel"
	}
	return string(k)
}

// Source holds the media location for a video. Exactly one of FilePath or
// ExternalURL is set, depending on the kind: short-form videos are uploaded
// files, long-form and reel videos point at external links.
type Source struct {
	FilePath    string
	ExternalURL string
}

var (
	// ErrMissingFile indicates a short-form video was created without an uploaded file.
	ErrMissingFile = errors.New("short-form video requires an uploaded file")
	// ErrMissingURL indicates a link-backed video was created without an external URL.
	ErrMissingURL = errors.New("long-form and reel videos require a video URL")
	// ErrConflictingSource indicates both a file and a URL were supplied.
	ErrConflictingSource = errors.New("video source must be a file or a URL, not both")
	// ErrPriceNotAllowed indicates a non-zero price on a kind that cannot be priced.
	ErrPriceNotAllowed = errors.New("only long-form videos may carry a price")
)

// ValidateSource enforces the kind-conditional source and pricing rules.
// Only long-form videos may carry a non-zero price; callers accepting
// client-supplied prices drop them for the other kinds before validating.
func ValidateSource(kind VideoKind, src Source, price int64) error {
	if src.FilePath != "" && src.ExternalURL != "" {
		return ErrConflictingSource
	}
	switch kind {
	case KindShortForm:
		if src.FilePath == "" {
			return ErrMissingFile
		}
	case KindLongForm, KindReel:
		if src.ExternalURL == "" {
			return ErrMissingURL
		}
	}
	if price != 0 && kind != KindLongForm {
		return ErrPriceNotAllowed
	}
	return nil
}

// Video is a catalog entry uploaded by a creator.
type Video struct {
	ID          string
	CreatorID   string
	Title       string
	Description string
	Kind        VideoKind
	Source      Source
	Thumbnail   string
	Duration    int64
	Price       int64
	UploadedAt  time.Time
}

// Purchasable reports whether the video can be bought. Only long-form
// videos participate in the purchase flow.
func (v Video) Purchasable() bool {
	return v.Kind == KindLongForm
}

// Free reports whether the video is viewable without an entitlement.
func (v Video) Free() bool {
	return v.Price == 0
}

// Purchase is the entitlement record granting a user permanent access to a
// priced video. At most one exists per (user, video) pair.
type Purchase struct {
	ID          string
	UserID      string
	VideoID     string
	PurchasedAt time.Time
}

// Like marks that a user liked a video. At most one exists per
// (video, user) pair, enforced by the store.
type Like struct {
	ID        string
	UserID    string
	VideoID   string
	CreatedAt time.Time
}

// Comment is an append-only remark on a video.
type Comment struct {
	ID        string
	VideoID   string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// MaxCommentLength bounds comment text, in characters.
const MaxCommentLength = 1000

// MaxTitleLength bounds video titles, in characters.
const MaxTitleLength = 100
