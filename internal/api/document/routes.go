package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document and search routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Post("/reembed", h.RegenerateAll)

		r.Route("/{document_id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Get("/export", h.Export)
			r.Post("/reembed", h.Reembed)
		})
	})

	r.Post("/search", h.Search)
}
