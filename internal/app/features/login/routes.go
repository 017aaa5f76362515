package login

import (
	"github.com/go-chi/chi/v5"
)

// Register attaches the sign-in routes at the site root.
func Register(r chi.Router, h *Handler) {
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLogin)
}
