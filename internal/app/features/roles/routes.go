package roles

import (
	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Register attaches the role management routes to the root router.
// Org-admins only; roles always belong to the admin's own organization.
func Register(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("orgadmin"))

		pr.Get("/add_role", h.ServeAdd)
		pr.Post("/add_role", h.HandleAdd)
	})
}
