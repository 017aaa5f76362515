package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	rolestore "github.com/dalemusser/orghub/internal/app/store/roles"
	"github.com/dalemusser/orghub/internal/app/system/normalize"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the users collection. It holds the database handle as well
// because the role/organization invariant is checked against the roles
// collection before any write.
type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("users")}
}

var (
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	// ErrDuplicateEmail is returned when the email is already taken.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrRoleOrgMismatch is returned when a user's role does not belong to
	// the user's organization. Such records are rejected, never saved.
	ErrRoleOrgMismatch = errors.New("the selected role does not belong to the user's organization")

	errBadStatus = errors.New(`status must be "active"|"disabled"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDInOrg loads a user by ObjectID, but only if they belong to the
// given organization. Cross-organization targets come back as
// mongo.ErrNoDocuments, same as missing ones.
func (s *Store) GetByIDInOrg(ctx context.Context, id, orgID primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by case-insensitive username.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	ci := text.Fold(normalize.Username(username))
	if err := s.c.FindOne(ctx, bson.M{"username_ci": ci}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrgAdmin returns the first org-admin of the organization, or
// mongo.ErrNoDocuments if the organization has none. One admin per
// organization is a convention, not a constraint, so "first" mirrors the
// original behavior when the convention is violated.
func (s *Store) FindOrgAdmin(ctx context.Context, orgID primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"organization_id": orgID, "is_org_admin": true}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListMembersByOrg returns the organization's users excluding admins,
// sorted by username. This is the org-admin dashboard listing.
func (s *Store) ListMembersByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "username_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID, "is_org_admin": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user after normalizing and validating fields.
// PasswordHash must already be hashed by the caller (system/authutil).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	u.UsernameCI = text.Fold(u.Username)
	u.Email = normalize.Email(u.Email)
	u.FirstName = normalize.Name(u.FirstName)
	if u.Status == "" {
		u.Status = status.Active
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	if err := s.checkRoleOrg(ctx, u.RoleID, u.OrganizationID); err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupError(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the identity fields an admin (or the org update path)
// may overwrite. PasswordHash is applied only when non-empty: an omitted
// password preserves the existing credential.
type ProfileUpdate struct {
	FirstName    string
	Username     string
	Email        string
	PasswordHash string
}

// UpdateProfile overwrites a user's identity fields without touching the
// role or organization references.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	return s.update(ctx, bson.M{"_id": id}, upd, nil, false)
}

// MemberUpdate holds the fields an org-admin edits on a member.
type MemberUpdate struct {
	ProfileUpdate
	RoleID primitive.ObjectID
	Status string
}

// UpdateMember overwrites a member's identity fields, role assignment, and
// status, scoped to the organization. The role must belong to the same
// organization; a target outside the organization is mongo.ErrNoDocuments.
func (s *Store) UpdateMember(ctx context.Context, id, orgID primitive.ObjectID, upd MemberUpdate) error {
	if err := s.checkRoleOrg(ctx, &upd.RoleID, &orgID); err != nil {
		return err
	}
	if upd.Status != "" && !status.IsValid(upd.Status) {
		return errBadStatus
	}
	filter := bson.M{"_id": id, "organization_id": orgID}
	return s.update(ctx, filter, upd.ProfileUpdate, &upd, true)
}

func (s *Store) update(ctx context.Context, filter bson.M, upd ProfileUpdate, member *MemberUpdate, setRole bool) error {
	username := normalize.Username(upd.Username)
	set := bson.M{
		"first_name":  normalize.Name(upd.FirstName),
		"username":    username,
		"username_ci": text.Fold(username),
		"email":       normalize.Email(upd.Email),
		"updated_at":  time.Now().UTC(),
	}
	if upd.PasswordHash != "" {
		set["password_hash"] = upd.PasswordHash
	}
	if setRole && member != nil {
		set["role_id"] = member.RoleID
		if member.Status != "" {
			set["status"] = member.Status
		}
	}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return dupError(err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteInOrg deletes a user, but only if they belong to the organization.
// Returns the number of documents deleted (0 or 1); a cross-organization
// target deletes nothing.
func (s *Store) DeleteInOrg(ctx context.Context, id, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UsernameExists checks whether any user already has the username.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	ci := text.Fold(normalize.Username(username))
	return s.exists(ctx, bson.M{"username_ci": ci})
}

// UsernameExistsForOther checks whether a user other than excludeID has the username.
func (s *Store) UsernameExistsForOther(ctx context.Context, username string, excludeID primitive.ObjectID) (bool, error) {
	ci := text.Fold(normalize.Username(username))
	return s.exists(ctx, bson.M{"username_ci": ci, "_id": bson.M{"$ne": excludeID}})
}

// EmailExists checks whether any user already has the email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, bson.M{"email": normalize.Email(email)})
}

// EmailExistsForOther checks whether a user other than excludeID has the email.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, bson.M{"email": normalize.Email(email), "_id": bson.M{"$ne": excludeID}})
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// checkRoleOrg enforces the invariant that a user's role belongs to the
// user's organization. A nil role always passes; a role set without an
// organization, or one owned by a different organization, is rejected.
func (s *Store) checkRoleOrg(ctx context.Context, roleID, orgID *primitive.ObjectID) error {
	if roleID == nil || roleID.IsZero() {
		return nil
	}
	if orgID == nil || orgID.IsZero() {
		return ErrRoleOrgMismatch
	}

	// A role from another organization and a missing role are the same
	// thing here: not one of this organization's roles.
	if _, err := rolestore.New(s.db).GetByIDInOrg(ctx, *roleID, *orgID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRoleOrgMismatch
		}
		return err
	}
	return nil
}

// dupError maps a duplicate-key error to the colliding field's sentinel.
// The index name appears in the server message; username_ci is the only
// other unique index on the collection.
func dupError(err error) error {
	if strings.Contains(err.Error(), "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}
