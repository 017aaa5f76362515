package dashboard

import (
	"context"
	"errors"
	"net/http"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	rolestore "github.com/dalemusser/orghub/internal/app/store/roles"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
)

type memberData struct {
	formutil.Base
	OrgName  string
	RoleName string
}

// ServeMember shows the member their organization and assigned role.
func (h *Handler) ServeMember(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	orgID := authz.UserOrgID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := organizationstore.New(h.DB).GetByID(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := memberData{OrgName: org.Name}

	u, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "A database error occurred.", "/dashboard")
		return
	}
	if u.RoleID != nil {
		role, err := rolestore.New(h.DB).GetByID(ctx, *u.RoleID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogServerError(w, r, "load role failed", err, "A database error occurred.", "/dashboard")
			return
		}
		if err == nil {
			data.RoleName = role.Name
		}
	}

	formutil.SetBase(&data.Base, r, "My Dashboard", "/dashboard")

	templates.Render(w, r, "dashboard_member", data)
}
