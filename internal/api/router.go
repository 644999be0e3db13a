package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/symark/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted. A non-empty
// token enables Bearer auth; events, if non-nil, is mounted at GET /events
// behind the same auth.
func NewRouter(svc *noteservice.Service, token string, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/notes/{id}/backlinks", h.Backlinks)
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/tags", h.Tags)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}
