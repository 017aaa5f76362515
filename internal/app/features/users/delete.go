package users

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeDeleteConfirm asks before removing a member.
//
// Route: GET /user/delete/{userID}
func (h *Handler) ServeDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user.", "/dashboard")
		return
	}

	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).GetByIDInOrg(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "member not found", err, "That user does not exist in your organization.", "/dashboard")
			return
		}
		h.ErrLog.LogServerError(w, r, "load member failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := deleteData{
		UserID:   u.ID.Hex(),
		Username: u.Username,
	}
	formutil.SetBase(&data.Base, r, "Delete Member", "/dashboard")

	templates.Render(w, r, "user_delete", data)
}

// HandleDelete removes a member of the admin's organization. A target in
// another organization deletes nothing.
//
// Route: POST /user/delete/{userID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "userID")
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user.", "/dashboard")
		return
	}

	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := userstore.New(h.DB).DeleteInOrg(ctx, userID, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete member failed", err, "A database error occurred while deleting.", "/dashboard")
		return
	}
	if n == 0 {
		// Missing and out-of-organization targets look the same.
		h.ErrLog.LogNotFound(w, r, "member delete: no document found", nil, "That user does not exist in your organization.", "/dashboard")
		return
	}

	h.Log.Info("member deleted", zap.String("user_id", idHex), zap.String("org_id", orgID.Hex()))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
