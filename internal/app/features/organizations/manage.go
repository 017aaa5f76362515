package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/orghub/internal/app/system/inputval"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// manageInput defines validation rules for the combined organization +
// admin form. Password rules are applied separately because the password
// is optional on edit.
type manageInput struct {
	OrgName        string `validate:"required,max=200" label:"Organization name"`
	OrgAddress     string `validate:"max=500" label:"Address"`
	AdminUsername  string `validate:"required,max=150" label:"Admin username"`
	AdminEmail     string `validate:"required,email,max=254" label:"Admin email"`
	AdminFirstName string `validate:"max=150" label:"Admin first name"`
}

type passwordInput struct {
	Password string `validate:"required,min=8,max=128" label:"Admin password"`
}

// ServeManage renders the organization form: blank for create, populated
// for edit when the route carries an orgID.
//
// Routes: GET /manage_organization, GET /manage_organization/{orgID}
func (h *Handler) ServeManage(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "orgID")
	if idHex == "" {
		data := manageData{}
		formutil.SetBase(&data.Base, r, "Add Organization", "/dashboard")
		templates.Render(w, r, "organization_manage", data)
		return
	}

	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/dashboard")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := organizationstore.New(h.DB).GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "organization not found", err, "That organization does not exist.", "/dashboard")
			return
		}
		h.ErrLog.LogServerError(w, r, "load organization failed", err, "A database error occurred.", "/dashboard")
		return
	}

	data := manageData{
		OrgID:      org.ID.Hex(),
		OrgName:    org.Name,
		OrgAddress: org.Address,
	}

	// The admin's identity is edited on the same form. An organization
	// without an admin simply shows blank admin fields.
	admin, err := userstore.New(h.DB).FindOrgAdmin(ctx, org.ID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "load org admin failed", err, "A database error occurred.", "/dashboard")
		return
	}
	if admin != nil {
		data.AdminUsername = admin.Username
		data.AdminEmail = admin.Email
		data.AdminFirstName = admin.FirstName
	}

	formutil.SetBase(&data.Base, r, "Edit Organization", "/dashboard")
	templates.Render(w, r, "organization_manage", data)
}

// HandleManage processes the organization form: create when the route has
// no orgID, update otherwise.
//
// Routes: POST /manage_organization, POST /manage_organization/{orgID}
func (h *Handler) HandleManage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/dashboard")
		return
	}

	input := manageInput{
		OrgName:        strings.TrimSpace(r.FormValue("org_name")),
		OrgAddress:     strings.TrimSpace(r.FormValue("org_address")),
		AdminUsername:  strings.TrimSpace(r.FormValue("admin_username")),
		AdminEmail:     strings.TrimSpace(r.FormValue("admin_email")),
		AdminFirstName: strings.TrimSpace(r.FormValue("admin_first_name")),
	}
	password := r.FormValue("admin_password")

	idHex := chi.URLParam(r, "orgID")

	title := "Add Organization"
	if idHex != "" {
		title = "Edit Organization"
	}
	renderWithError := func(msg string) {
		data := manageData{
			OrgID:          idHex,
			OrgName:        input.OrgName,
			OrgAddress:     input.OrgAddress,
			AdminUsername:  input.AdminUsername,
			AdminEmail:     input.AdminEmail,
			AdminFirstName: input.AdminFirstName,
		}
		formutil.SetBase(&data.Base, r, title, "/dashboard")
		data.SetError(msg)
		templates.Render(w, r, "organization_manage", data)
	}

	if result := inputval.Validate(input); result.HasErrors() {
		renderWithError(result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if idHex == "" {
		h.createOrganization(ctx, w, r, input, password, renderWithError)
		return
	}

	oid, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad organization id", err, "Invalid organization.", "/dashboard")
		return
	}
	h.updateOrganization(ctx, w, r, oid, input, password, renderWithError)
}

// createOrganization inserts the organization and its admin together. The
// admin account is required for a new organization, so a failed admin
// insert rolls the organization back.
func (h *Handler) createOrganization(ctx context.Context, w http.ResponseWriter, r *http.Request, input manageInput, password string, renderWithError func(string)) {
	if result := inputval.Validate(passwordInput{Password: password}); result.HasErrors() {
		renderWithError(result.First())
		return
	}

	orgs := organizationstore.New(h.DB)
	users := userstore.New(h.DB)

	taken, err := orgs.ExistsByName(ctx, input.OrgName)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check organization name failed", err, "A database error occurred.", "/dashboard")
		return
	}
	if taken {
		renderWithError("An organization with that name already exists.")
		return
	}

	org, err := orgs.Create(ctx, models.Organization{
		Name:    input.OrgName,
		Address: htmlsanitize.Sanitize(input.OrgAddress),
	})
	if err != nil {
		if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
			renderWithError("An organization with that name already exists.")
			return
		}
		h.ErrLog.LogServerError(w, r, "create organization failed", err, "A database error occurred while creating the organization.", "/dashboard")
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.rollbackOrg(ctx, org.ID)
		h.ErrLog.LogServerError(w, r, "hash admin password failed", err, "Could not create the admin account.", "/dashboard")
		return
	}

	_, err = users.Create(ctx, models.User{
		Username:       input.AdminUsername,
		Email:          input.AdminEmail,
		FirstName:      input.AdminFirstName,
		PasswordHash:   hash,
		OrganizationID: &org.ID,
		IsOrgAdmin:     true,
	})
	if err != nil {
		h.rollbackOrg(ctx, org.ID)
		switch {
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("A user with that username already exists.")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("A user with that email already exists.")
		default:
			h.ErrLog.LogServerError(w, r, "create org admin failed", err, "A database error occurred while creating the admin account.", "/dashboard")
		}
		return
	}

	h.Log.Info("organization created",
		zap.String("org_id", org.ID.Hex()),
		zap.String("name", org.Name))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// updateOrganization updates the organization and the admin's identity.
// An organization that lost its admin gets a new one provisioned, which
// requires a password.
func (h *Handler) updateOrganization(ctx context.Context, w http.ResponseWriter, r *http.Request, oid primitive.ObjectID, input manageInput, password string, renderWithError func(string)) {
	orgs := organizationstore.New(h.DB)
	users := userstore.New(h.DB)

	taken, err := orgs.NameExistsForOther(ctx, input.OrgName, oid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check organization name failed", err, "A database error occurred.", "/dashboard")
		return
	}
	if taken {
		renderWithError("An organization with that name already exists.")
		return
	}

	if err := orgs.Update(ctx, oid, input.OrgName, htmlsanitize.Sanitize(input.OrgAddress)); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.LogNotFound(w, r, "organization not found", err, "That organization does not exist.", "/dashboard")
		case errors.Is(err, organizationstore.ErrDuplicateOrganization):
			// The pre-check can lose a race with a concurrent rename; the
			// unique index still reports it.
			renderWithError("An organization with that name already exists.")
		default:
			h.ErrLog.LogServerError(w, r, "update organization failed", err, "A database error occurred.", "/dashboard")
		}
		return
	}

	admin, err := users.FindOrgAdmin(ctx, oid)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "load org admin failed", err, "A database error occurred.", "/dashboard")
		return
	}

	if admin == nil {
		// No admin on record: provision one, which needs a password.
		if result := inputval.Validate(passwordInput{Password: password}); result.HasErrors() {
			renderWithError(result.First())
			return
		}
		hash, err := authutil.HashPassword(password)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash admin password failed", err, "Could not create the admin account.", "/dashboard")
			return
		}
		_, err = users.Create(ctx, models.User{
			Username:       input.AdminUsername,
			Email:          input.AdminEmail,
			FirstName:      input.AdminFirstName,
			PasswordHash:   hash,
			OrganizationID: &oid,
			IsOrgAdmin:     true,
		})
		if err != nil {
			switch {
			case errors.Is(err, userstore.ErrDuplicateUsername):
				renderWithError("A user with that username already exists.")
			case errors.Is(err, userstore.ErrDuplicateEmail):
				renderWithError("A user with that email already exists.")
			default:
				h.ErrLog.LogServerError(w, r, "create org admin failed", err, "A database error occurred.", "/dashboard")
			}
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	upd := userstore.ProfileUpdate{
		FirstName: input.AdminFirstName,
		Username:  input.AdminUsername,
		Email:     input.AdminEmail,
	}
	if password != "" {
		if result := inputval.Validate(passwordInput{Password: password}); result.HasErrors() {
			renderWithError(result.First())
			return
		}
		hash, err := authutil.HashPassword(password)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash admin password failed", err, "Could not update the admin account.", "/dashboard")
			return
		}
		upd.PasswordHash = hash
	}

	if err := users.UpdateProfile(ctx, admin.ID, upd); err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("A user with that username already exists.")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("A user with that email already exists.")
		default:
			h.ErrLog.LogServerError(w, r, "update org admin failed", err, "A database error occurred.", "/dashboard")
		}
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// rollbackOrg removes an organization whose admin could not be created.
// Best effort: a failure here leaves an adminless organization, which the
// edit form can repair.
func (h *Handler) rollbackOrg(ctx context.Context, orgID primitive.ObjectID) {
	if _, err := organizationstore.New(h.DB).Delete(ctx, orgID); err != nil {
		h.Log.Error("rollback organization failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
	}
}
