package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/booker/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/templates", h.ListTemplates)

	// Documents. POST dispatches on the /books and /tables suffix.
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.PutDocument)
	r.Delete("/documents/*", h.DeleteDocument)
	r.Post("/documents/*", h.DocumentCommand)

	// Catalog.
	r.Get("/books", h.ListBooks)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
