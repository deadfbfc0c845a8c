package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eastgate/lore/internal/apperr"
	"github.com/eastgate/lore/internal/docs"
	"github.com/eastgate/lore/internal/syncer"
)

// DocEngine is the sync engine surface the handlers depend on.
type DocEngine interface {
	GetDocument(ctx context.Context, slug string) (docs.Document, error)
	GetAllDocuments() []docs.Document
	BuildNavigation(section string) []docs.NavNode
	RefreshAll(ctx context.Context) error
	Invalidate(slug string)
	State() syncer.State
}

// Handler holds API route handlers.
type Handler struct {
	engine DocEngine
}

// NewHandler creates a new Handler.
func NewHandler(engine DocEngine) *Handler {
	return &Handler{engine: engine}
}

// docSlug extracts the document slug from the URL wildcard, decoding
// percent-encoded slashes from generated clients.
func docSlug(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocuments handles GET /api/docs.
func (h *Handler) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	all := h.engine.GetAllDocuments()
	items := make([]DocListItem, len(all))
	for i, d := range all {
		items[i] = toListItem(d)
	}
	writeJSON(w, http.StatusOK, DocListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/docs/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	slug := docSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	doc, err := h.engine.GetDocument(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrRepoUnavailable):
			// True cold miss with the repository unreachable: nothing to
			// serve, not even stale content.
			writeJSON(w, http.StatusServiceUnavailable, errorBody("repository unavailable"))
		default:
			slog.Error("get document failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Navigation handles GET /api/nav.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	writeJSON(w, http.StatusOK, NavResponse{Nav: h.engine.BuildNavigation(section)})
}

// Refresh handles POST /api/refresh (editor/admin hook).
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RefreshAll(r.Context()); err != nil {
		slog.Error("manual refresh failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("refresh failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": h.engine.State()})
}

// InvalidateCache handles DELETE /api/cache/*: the external editor write
// path drops affected entries by slug so the next read refetches them.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	slug := docSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	h.engine.Invalidate(slug)
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     h.engine.State(),
		"documents": len(h.engine.GetAllDocuments()),
	})
}
