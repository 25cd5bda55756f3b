package conversation

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers conversation routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/conversation", func(r chi.Router) {
		r.Post("/start", h.StartConversation)
		r.Post("/message", h.SendMessage)
		r.Get("/{id}", h.GetConversation)
		r.Delete("/{id}", h.DeleteConversation)
		r.Get("/{id}/report", h.GetReport)
	})
}
