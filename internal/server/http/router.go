package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the handlers onto their routes. Uploads are limited to
// maxUploads concurrent requests when maxUploads > 0.
func NewRouter(h *Handlers, maxUploads int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		if maxUploads > 0 {
			r.Use(middleware.Throttle(maxUploads))
		}
		r.Post("/upload-rom", h.UploadROM)
		r.Post("/upload-delta", h.UploadDelta)
		r.Post("/generate-delta", h.GenerateDelta)
	})

	r.Get("/api/games", h.Games)
	r.Post("/save-bookmarks", h.SaveBookmarks)
	r.Get("/get-bookmarks", h.GetBookmarks)
	r.Get("/api/bookmarks", h.AllBookmarks)
	r.Get("/api/catalog", h.SearchCatalog)
	r.Get("/api/catalog/{gameid}", h.CatalogEntry)
	r.Get("/healthz", h.Health)

	return r
}
