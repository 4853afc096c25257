package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/students", h.RegisterStudent)

	r.Route("/chat/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetConversation)
			r.Post("/messages", h.SendMessage)
		})
	})

	r.Post("/documents/{document_id}/study-questions", h.StudyQuestions)
}
