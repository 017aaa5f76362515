package organizations

import (
	"github.com/dalemusser/orghub/internal/app/system/formutil"
)

// manageData is the view model for the combined organization + admin form,
// used for both create and edit. On edit, OrgID is set and the password
// fields are optional.
type manageData struct {
	formutil.Base
	OrgID string

	OrgName    string
	OrgAddress string

	AdminUsername  string
	AdminEmail     string
	AdminFirstName string
}

// deleteData is the view model for the delete confirmation page.
type deleteData struct {
	formutil.Base
	OrgID       string
	OrgName     string
	RoleCount   int64
	MemberCount int64
}
