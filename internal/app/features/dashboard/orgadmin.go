package dashboard

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	rolestore "github.com/dalemusser/orghub/internal/app/store/roles"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberRow struct {
	ID        primitive.ObjectID
	Username  string
	FirstName string
	Email     string
	RoleName  string
	Status    string
}

type orgAdminData struct {
	formutil.Base
	OrgName string
	Members []memberRow
	Roles   []models.Role
}

// ServeOrgAdmin lists the organization's members (admins excluded) with
// their role names resolved, plus the organization's roles.
func (h *Handler) ServeOrgAdmin(w http.ResponseWriter, r *http.Request) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := organizationstore.New(h.DB).GetByID(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization failed", err, "A database error occurred.", "/dashboard")
		return
	}

	members, err := userstore.New(h.DB).ListMembersByOrg(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", "/dashboard")
		return
	}

	roles, err := rolestore.New(h.DB).ListByOrg(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list roles failed", err, "A database error occurred.", "/dashboard")
		return
	}

	roleNames := make(map[primitive.ObjectID]string, len(roles))
	for _, role := range roles {
		roleNames[role.ID] = role.Name
	}

	rows := make([]memberRow, 0, len(members))
	for _, m := range members {
		row := memberRow{
			ID:        m.ID,
			Username:  m.Username,
			FirstName: m.FirstName,
			Email:     m.Email,
			Status:    m.Status,
		}
		if m.RoleID != nil {
			row.RoleName = roleNames[*m.RoleID]
		}
		rows = append(rows, row)
	}

	data := orgAdminData{
		OrgName: org.Name,
		Members: rows,
		Roles:   roles,
	}
	formutil.SetBase(&data.Base, r, org.Name+" Members", "/dashboard")

	templates.Render(w, r, "dashboard_orgadmin", data)
}
