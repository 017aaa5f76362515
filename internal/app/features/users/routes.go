package users

import (
	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the member management routes under "/user". Org-admins
// only; the handlers scope every lookup to the admin's organization.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("orgadmin"))

		pr.Get("/add", h.ServeAdd)
		pr.Post("/add", h.HandleAdd)

		pr.Get("/delete/{userID}", h.ServeDeleteConfirm)
		pr.Post("/delete/{userID}", h.HandleDelete)

		pr.Get("/{userID}", h.ServeEdit)
		pr.Post("/{userID}", h.HandleEdit)
	})

	return r
}
