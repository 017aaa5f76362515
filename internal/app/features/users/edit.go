package users

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/inputval"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEdit renders the member form populated from an existing member.
// Members of other organizations are invisible here: the lookup is scoped
// to the admin's own organization.
//
// Route: GET /user/{userID}
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fc, ok := h.newFormContext(ctx, w, r)
	if !ok {
		return
	}

	u, err := userstore.New(h.DB).GetByIDInOrg(ctx, userID, fc.orgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "member not found", err, "That user does not exist in your organization.", "/dashboard")
			return
		}
		h.ErrLog.LogServerError(w, r, "load member failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := formData{
		UserID:    u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		Status:    u.Status,
		Roles:     fc.roles,
	}
	if u.RoleID != nil {
		data.RoleID = u.RoleID.Hex()
	}

	formutil.SetBase(&data.Base, r, "Edit Member", "/dashboard")
	templates.Render(w, r, "user_form", data)
}

// HandleEdit updates a member. An empty password keeps the existing one.
//
// Route: POST /user/{userID}
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/dashboard")
		return
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad user id", err, "Invalid user.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fc, ok := h.newFormContext(ctx, w, r)
	if !ok {
		return
	}
	in := readForm(r)

	renderWithError := func(msg string) {
		data := in.toFormData(userID.Hex(), fc.roles)
		formutil.SetBase(&data.Base, r, "Edit Member", "/dashboard")
		data.SetError(msg)
		templates.Render(w, r, "user_form", data)
	}

	if result := inputval.Validate(in.memberInput); result.HasErrors() {
		renderWithError(result.First())
		return
	}

	roleID, err := fc.resolveRole(in.RoleID)
	if err != nil {
		renderWithError("Please select a valid role.")
		return
	}

	upd := userstore.MemberUpdate{
		ProfileUpdate: userstore.ProfileUpdate{
			FirstName: in.FirstName,
			Username:  in.Username,
			Email:     in.Email,
		},
		RoleID: roleID,
		Status: in.Status,
	}
	if in.Password != "" {
		if result := inputval.Validate(passwordInput{Password: in.Password}); result.HasErrors() {
			renderWithError(result.First())
			return
		}
		hash, err := authutil.HashPassword(in.Password)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash password failed", err, "Could not update the account.", "/dashboard")
			return
		}
		upd.PasswordHash = hash
	}

	err = userstore.New(h.DB).UpdateMember(ctx, userID, fc.orgID, upd)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.LogNotFound(w, r, "member not found", err, "That user does not exist in your organization.", "/dashboard")
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("A user with that username already exists.")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("A user with that email already exists.")
		case errors.Is(err, userstore.ErrRoleOrgMismatch):
			renderWithError("Please select a valid role.")
		default:
			h.ErrLog.LogServerError(w, r, "update member failed", err, "A database error occurred while saving.", "/dashboard")
		}
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
