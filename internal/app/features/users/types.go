package users

import (
	"github.com/dalemusser/orghub/internal/app/system/formutil"
	"github.com/dalemusser/orghub/internal/domain/models"
)

// formData is the view model for the member form, shared by add and edit.
// On edit, UserID is set and the password field is optional.
type formData struct {
	formutil.Base
	UserID string

	Username  string
	Email     string
	FirstName string
	RoleID    string
	Status    string

	Roles []models.Role
}

// deleteData is the view model for the delete confirmation page.
type deleteData struct {
	formutil.Base
	UserID   string
	Username string
}
