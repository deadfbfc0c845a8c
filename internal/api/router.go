package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(engine DocEngine, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(engine)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/docs", h.ListDocuments)
	r.Get("/docs/*", h.GetDocument)

	// Navigation.
	r.Get("/nav", h.Navigation)

	// Sync controls.
	r.Post("/refresh", h.Refresh)
	r.Delete("/cache/*", h.InvalidateCache)
	r.Get("/status", h.Status)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
