package roles

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/orghub/internal/app/features/errors"
	rolestore "github.com/dalemusser/orghub/internal/app/store/roles"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/orghub/internal/app/system/inputval"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Log:    logger,
	}
}

type addRoleData struct {
	formutil.Base
	Name        string
	Description string
}

// addRoleInput defines validation rules for the add-role form.
type addRoleInput struct {
	Name        string `validate:"required,max=150" label:"Role name"`
	Description string `validate:"max=1000" label:"Description"`
}

// ServeAdd renders the add-role form.
//
// Route: GET /add_role
func (h *Handler) ServeAdd(w http.ResponseWriter, r *http.Request) {
	data := addRoleData{}
	formutil.SetBase(&data.Base, r, "Add Role", "/dashboard")
	templates.Render(w, r, "role_add", data)
}

// HandleAdd creates a role in the admin's own organization. The form is
// re-rendered with the entered values on a blank name or a duplicate.
//
// Route: POST /add_role
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/dashboard")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))

	renderWithError := func(msg string) {
		data := addRoleData{Name: name, Description: description}
		formutil.SetBase(&data.Base, r, "Add Role", "/dashboard")
		data.SetError(msg)
		templates.Render(w, r, "role_add", data)
	}

	input := addRoleInput{Name: name, Description: description}
	if result := inputval.Validate(input); result.HasErrors() {
		renderWithError(result.First())
		return
	}

	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := rolestore.New(h.DB)

	exists, err := store.NameExistsInOrg(ctx, name, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check role name failed", err, "A database error occurred.", "/dashboard")
		return
	}
	if exists {
		renderWithError("A role with that name already exists.")
		return
	}

	_, err = store.Create(ctx, models.Role{
		Name:           name,
		Description:    htmlsanitize.Sanitize(description),
		OrganizationID: orgID,
	})
	if err != nil {
		// The unique index backstops the pre-check under concurrent adds.
		if errors.Is(err, rolestore.ErrDuplicateRole) {
			renderWithError("A role with that name already exists.")
			return
		}
		h.ErrLog.LogServerError(w, r, "create role failed", err, "A database error occurred while creating the role.", "/dashboard")
		return
	}

	h.Log.Info("role created", zap.String("name", name), zap.String("org_id", orgID.Hex()))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
