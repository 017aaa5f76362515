// internal/app/store/organizations/organizationstore.go
package organizationstore

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

// Store wraps the organizations collection. It also holds the database
// handle because Delete cascades into the roles and users collections.
type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("organizations")}
}

func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// ListTenants returns all organizations except the main one, sorted by name.
// This is the superuser dashboard listing.
func (s *Store) ListTenants(ctx context.Context) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"is_main": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Update overwrites an organization's name and address and refreshes
// UpdatedAt. An empty address clears the stored one.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, address string) error {
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"address":    address,
		"updated_at": time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateOrganization
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an organization and applies the schema's cascade rules:
// the organization's roles are deleted outright, while its users keep their
// accounts and only lose the organization and role references.
// Returns the number of organization documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if _, err := s.db.Collection("roles").DeleteMany(ctx, bson.M{"organization_id": id}); err != nil {
		return 0, err
	}

	_, err := s.db.Collection("users").UpdateMany(ctx,
		bson.M{"organization_id": id},
		bson.M{
			"$unset": bson.M{"organization_id": "", "role_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ExistsByName checks if an organization with the given name exists,
// case-insensitively. The name is folded here, so callers pass it as typed.
func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NameExistsForOther checks if another organization already uses the given
// name, case-insensitively. The record identified by excludeID can keep its
// own name. Folding happens here, so callers pass the name as typed.
func (s *Store) NameExistsForOther(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"name_ci": text.Fold(name),
		"_id":     bson.M{"$ne": excludeID},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetMain returns the sentinel main organization, if one exists.
func (s *Store) GetMain(ctx context.Context) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"is_main": true}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// CascadePreview reports what a Delete of the organization would take with
// it: the number of roles that would be removed and the number of users
// that would be detached.
func (s *Store) CascadePreview(ctx context.Context, id primitive.ObjectID) (roleCount, userCount int64, err error) {
	roleCount, err = s.db.Collection("roles").CountDocuments(ctx, bson.M{"organization_id": id})
	if err != nil {
		return 0, 0, err
	}
	userCount, err = s.db.Collection("users").CountDocuments(ctx, bson.M{"organization_id": id})
	if err != nil {
		return 0, 0, err
	}
	return roleCount, userCount, nil
}
