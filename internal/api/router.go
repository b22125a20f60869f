package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/visionpulse/internal/api/middleware"
	"github.com/kiranshivaraju/visionpulse/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	CreateVideo   http.HandlerFunc
	ListVideos    http.HandlerFunc
	GetVideo      http.HandlerFunc
	DeleteVideo   http.HandlerFunc
	RemixVideo    http.HandlerFunc
	ListStyles    http.HandlerFunc
	ListVoices    http.HandlerFunc

	// ArtifactPath and ArtifactDir mount read-only file serving for generated
	// media. Both must be set for the route to exist.
	ArtifactPath string
	ArtifactDir  string
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	if deps.ArtifactPath != "" && deps.ArtifactDir != "" {
		prefix := "/" + strings.Trim(deps.ArtifactPath, "/")
		r.Get(prefix+"/*", artifactServer(prefix, deps.ArtifactDir))
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/videos", orNotImplemented(deps.CreateVideo))
		r.Get("/api/v1/videos", orNotImplemented(deps.ListVideos))
		r.Get("/api/v1/videos/{videoID}", orNotImplemented(deps.GetVideo))
		r.Delete("/api/v1/videos/{videoID}", orNotImplemented(deps.DeleteVideo))
		r.Post("/api/v1/videos/{videoID}/remix", orNotImplemented(deps.RemixVideo))

		r.Get("/api/v1/styles", orNotImplemented(deps.ListStyles))
		r.Get("/api/v1/voices", orNotImplemented(deps.ListVoices))
	})

	return r
}

// artifactServer serves files under dir. Directory listings are not exposed.
func artifactServer(prefix, dir string) http.HandlerFunc {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Artifact not found", nil)
			return
		}
		files.ServeHTTP(w, r)
	}
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
