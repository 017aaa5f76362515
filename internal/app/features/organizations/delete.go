package organizations

import (
	"context"
	"errors"
	"net/http"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeDeleteConfirm shows what a delete will take with it: the
// organization's roles are removed and its users detached.
//
// Route: GET /delete_organization/{orgID}
func (h *Handler) ServeDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	orgs := organizationstore.New(h.DB)

	org, err := orgs.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "organization not found", err, "That organization does not exist.", "/dashboard")
			return
		}
		h.ErrLog.LogServerError(w, r, "load organization failed", err, "A database error occurred.", "/dashboard")
		return
	}

	roleCount, memberCount, err := orgs.CascadePreview(ctx, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count cascade failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := deleteData{
		OrgID:       org.ID.Hex(),
		OrgName:     org.Name,
		RoleCount:   roleCount,
		MemberCount: memberCount,
	}
	formutil.SetBase(&data.Base, r, "Delete Organization", "/dashboard")

	templates.Render(w, r, "organization_delete", data)
}

// HandleDelete deletes the organization, cascades to its roles, and
// detaches its users, then returns to the dashboard.
//
// Route: POST /delete_organization/{orgID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "orgID")
	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := organizationstore.New(h.DB).Delete(ctx, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete organization failed", err, "A database error occurred while deleting.", "/dashboard")
		return
	}
	if n == 0 {
		h.ErrLog.LogNotFound(w, r, "organization delete: no document found", nil, "That organization does not exist.", "/dashboard")
		return
	}

	h.Log.Info("organization deleted", zap.String("org_id", idHex))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
