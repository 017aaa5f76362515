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
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ServeAdd renders the add-member form with the organization's roles for
// the role dropdown.
//
// Route: GET /user/add
func (h *Handler) ServeAdd(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	fc, ok := h.newFormContext(ctx, w, r)
	if !ok {
		return
	}

	data := formData{Roles: fc.roles, Status: "active"}
	formutil.SetBase(&data.Base, r, "Add Member", "/dashboard")
	templates.Render(w, r, "user_form", data)
}

// HandleAdd creates a member in the admin's organization. The role must be
// one of the organization's own roles; the dropdown enforces that in the
// browser and the store enforces it against forged submissions.
//
// Route: POST /user/add
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/dashboard")
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
		data := in.toFormData("", fc.roles)
		formutil.SetBase(&data.Base, r, "Add Member", "/dashboard")
		data.SetError(msg)
		templates.Render(w, r, "user_form", data)
	}

	if result := inputval.Validate(in.memberInput); result.HasErrors() {
		renderWithError(result.First())
		return
	}
	if result := inputval.Validate(passwordInput{Password: in.Password}); result.HasErrors() {
		renderWithError(result.First())
		return
	}

	roleID, err := fc.resolveRole(in.RoleID)
	if err != nil {
		renderWithError("Please select a valid role.")
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Could not create the account.", "/dashboard")
		return
	}

	orgID := fc.orgID
	_, err = userstore.New(h.DB).Create(ctx, models.User{
		Username:       in.Username,
		Email:          in.Email,
		FirstName:      in.FirstName,
		PasswordHash:   hash,
		OrganizationID: &orgID,
		RoleID:         &roleID,
		Status:         in.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("A user with that username already exists.")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("A user with that email already exists.")
		case errors.Is(err, userstore.ErrRoleOrgMismatch):
			renderWithError("Please select a valid role.")
		default:
			h.ErrLog.LogServerError(w, r, "create member failed", err, "A database error occurred while creating the account.", "/dashboard")
		}
		return
	}

	h.Log.Info("member created", zap.String("username", in.Username), zap.String("org_id", orgID.Hex()))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
