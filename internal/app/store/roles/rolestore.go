// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateRole = errors.New("a role with this name already exists in the organization")
	errOrgRequired   = errors.New("role must have an organization")
	errNameRequired  = errors.New("role name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// Create inserts a new role scoped to its organization. The unique index on
// (organization_id, name_ci) is the backstop for concurrent duplicates;
// handlers pre-check with NameExistsInOrg for a friendlier message.
func (s *Store) Create(ctx context.Context, role models.Role) (models.Role, error) {
	if role.Name == "" {
		return models.Role{}, errNameRequired
	}
	if role.OrganizationID.IsZero() {
		return models.Role{}, errOrgRequired
	}

	now := time.Now().UTC()
	role.ID = primitive.NewObjectID()
	role.NameCI = text.Fold(role.Name)
	role.CreatedAt = now
	role.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, role); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRole
		}
		return models.Role{}, err
	}
	return role, nil
}

// GetByIDInOrg loads a role by ID, but only if it belongs to the given
// organization. A role from another organization is indistinguishable from
// a missing one (mongo.ErrNoDocuments) — this is what prevents cross-tenant
// role assignment.
func (s *Store) GetByIDInOrg(ctx context.Context, id, orgID primitive.ObjectID) (models.Role, error) {
	var role models.Role
	err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&role)
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

// GetByID loads a role by ID regardless of organization.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	var role models.Role
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

// ListByOrg returns all roles of one organization, sorted by name.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var roles []models.Role
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// NameExistsInOrg checks for a role with the given name in the organization,
// case-insensitively. Folding happens here, so callers pass the name as typed.
func (s *Store) NameExistsInOrg(ctx context.Context, name string, orgID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name), "organization_id": orgID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
