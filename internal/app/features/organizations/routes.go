package organizations

import (
	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Register attaches the organization management routes to the root router.
// The paths are top-level ("/manage_organization", "/delete_organization"),
// so this registers onto the parent instead of mounting a subrouter.
// Everything here is superuser-only.
func Register(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("superuser"))

		pr.Get("/manage_organization", h.ServeManage)
		pr.Post("/manage_organization", h.HandleManage)
		pr.Get("/manage_organization/{orgID}", h.ServeManage)
		pr.Post("/manage_organization/{orgID}", h.HandleManage)

		pr.Get("/delete_organization/{orgID}", h.ServeDeleteConfirm)
		pr.Post("/delete_organization/{orgID}", h.HandleDelete)
	})
}
