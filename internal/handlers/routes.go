package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Tokens       TokenIssuer
	Verifier     middleware.TokenVerifier
	Videos       VideoStore
	Engagement   EngagementStore
	Purchases    PurchaseStore
	Files        FileStore
	Ingestor     MetadataIngestor
	AuthLimiter  RateLimiter
	Feed         FeedLimits
	MaxUpload    int64
	SignupWallet int64
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, Limiter: deps.AuthLimiter, SignupWallet: deps.SignupWallet}
	videos := VideoHandler{
		Videos:     deps.Videos,
		Engagement: deps.Engagement,
		Files:      deps.Files,
		Ingestor:   deps.Ingestor,
		Limits:     deps.Feed,
		MaxUpload:  deps.MaxUpload,
	}
	purchases := PurchaseHandler{Videos: deps.Videos, Purchases: deps.Purchases}
	comments := CommentHandler{Engagement: deps.Engagement}

	requireAuth := middleware.RequireAuth(deps.Verifier)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/signup", authH.SignUp)
	mux.HandleFunc("POST /api/v1/auth/signin", authH.SignIn)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.Handle("GET /api/v1/videos/feed", protected(videos.Feed))
	mux.Handle("GET /api/v1/videos/reels", protected(videos.Reels))
	mux.Handle("GET /api/v1/videos/{id}", protected(videos.Get))
	mux.Handle("POST /api/v1/videos/upload", protected(videos.Upload))
	mux.Handle("DELETE /api/v1/videos/{id}", protected(videos.Delete))
	mux.Handle("POST /api/v1/videos/{id}/like", protected(videos.ToggleLike))
	mux.Handle("GET /api/v1/videos/{id}/likes", protected(videos.Likers))
	mux.Handle("GET /api/v1/videos/{id}/like/check", protected(videos.LikeCheck))

	mux.Handle("POST /api/v1/purchase/{videoId}", protected(purchases.Purchase))
	mux.Handle("GET /api/v1/purchase/check/{videoId}", protected(purchases.Check))

	mux.HandleFunc("GET /api/v1/comments/{videoId}", comments.List)
	mux.Handle("POST /api/v1/comments/{videoId}", protected(comments.Create))
}
