// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents superusers, organization admins, and regular members.
//
// OrganizationID and RoleID are both optional. When both are set, the role
// must belong to the same organization; the user store rejects writes that
// violate this.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	UsernameCI   string             `bson:"username_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email"`
	FirstName    string             `bson:"first_name"`
	PasswordHash string             `bson:"password_hash"`

	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty"`
	RoleID         *primitive.ObjectID `bson:"role_id,omitempty"`

	IsOrgAdmin  bool   `bson:"is_org_admin"`
	IsSuperuser bool   `bson:"is_superuser"`
	Status      string `bson:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Class returns the user's access-control class: "superuser", "orgadmin",
// or "member". Superuser wins over org admin when both flags are set.
func (u *User) Class() string {
	switch {
	case u.IsSuperuser:
		return "superuser"
	case u.IsOrgAdmin:
		return "orgadmin"
	default:
		return "member"
	}
}
