package dashboard

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type superuserData struct {
	formutil.Base
	Organizations []models.Organization
}

// ServeSuperuser lists the tenant organizations. The main organization is
// the superusers' own home and is not listed for management.
func (h *Handler) ServeSuperuser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	orgs, err := organizationstore.New(h.DB).ListTenants(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list organizations failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := superuserData{Organizations: orgs}
	formutil.SetBase(&data.Base, r, "Organizations", "/dashboard")

	templates.Render(w, r, "dashboard_superuser", data)
}
