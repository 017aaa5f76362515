package logout

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the logout route. No auth middleware: signing out an
// already-expired session should still clear the cookie.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	return r
}
