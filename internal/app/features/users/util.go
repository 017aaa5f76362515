package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	rolestore "github.com/dalemusser/orghub/internal/app/store/roles"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberInput defines validation rules for the member form.
type memberInput struct {
	Username  string `validate:"required,max=150" label:"Username"`
	Email     string `validate:"required,email,max=254" label:"Email"`
	FirstName string `validate:"max=150" label:"First name"`
	RoleID    string `validate:"required" label:"Role"`
}

type passwordInput struct {
	Password string `validate:"required,min=8,max=128" label:"Password"`
}

// formInput is everything read off the member form.
type formInput struct {
	memberInput
	Password string
	Status   string
}

func readForm(r *http.Request) formInput {
	in := formInput{
		memberInput: memberInput{
			Username:  strings.TrimSpace(r.FormValue("username")),
			Email:     strings.TrimSpace(r.FormValue("email")),
			FirstName: strings.TrimSpace(r.FormValue("first_name")),
			RoleID:    strings.TrimSpace(r.FormValue("role_id")),
		},
		Password: r.FormValue("password"),
		Status:   strings.TrimSpace(r.FormValue("status")),
	}
	if !status.IsValid(in.Status) {
		in.Status = status.Active
	}
	return in
}

func (in formInput) toFormData(userID string, roles []models.Role) formData {
	return formData{
		UserID:    userID,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		RoleID:    in.RoleID,
		Status:    in.Status,
		Roles:     roles,
	}
}

var errRoleNotInOrg = errors.New("role does not belong to the organization")

// formContext bundles what every member form handler needs: the admin's
// organization and its roles for the dropdown.
type formContext struct {
	orgID primitive.ObjectID
	roles []models.Role
}

// newFormContext resolves the signed-in admin's organization and loads its
// roles. Returns ok=false after writing a response when that fails.
func (h *Handler) newFormContext(ctx context.Context, w http.ResponseWriter, r *http.Request) (formContext, bool) {
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return formContext{}, false
	}

	roles, err := rolestore.New(h.DB).ListByOrg(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list roles failed", err, "A database error occurred.", "/dashboard")
		return formContext{}, false
	}

	return formContext{orgID: orgID, roles: roles}, true
}

// resolveRole parses the submitted role ID and checks it against the
// organization's own roles.
func (fc formContext) resolveRole(roleHex string) (primitive.ObjectID, error) {
	roleID, err := primitive.ObjectIDFromHex(roleHex)
	if err != nil {
		return primitive.NilObjectID, err
	}
	for _, role := range fc.roles {
		if role.ID == roleID {
			return roleID, nil
		}
	}
	return primitive.NilObjectID, errRoleNotInOrg
}
