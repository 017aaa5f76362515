// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a tenant: the unit of isolation for roles and users.
// Exactly one organization is marked IsMain; it represents the platform
// operator and is excluded from superuser listings.
type Organization struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	NameCI    string             `bson:"name_ci"` // lowercase, diacritics-stripped
	Address   string             `bson:"address,omitempty"`
	IsMain    bool               `bson:"is_main"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}
