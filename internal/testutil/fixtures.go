package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures insert documents directly so tests can arrange state without
// going through the stores under test.

func InsertOrganization(t *testing.T, db *mongo.Database, name string, isMain bool) models.Organization {
	t.Helper()
	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		IsMain:    isMain,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection("organizations").InsertOne(context.Background(), org); err != nil {
		t.Fatalf("insert organization: %v", err)
	}
	return org
}

func InsertRole(t *testing.T, db *mongo.Database, orgID primitive.ObjectID, name string) models.Role {
	t.Helper()
	now := time.Now().UTC()
	role := models.Role{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.Collection("roles").InsertOne(context.Background(), role); err != nil {
		t.Fatalf("insert role: %v", err)
	}
	return role
}

// InsertUser inserts a member of the given organization with the given
// role. Pass primitive.NilObjectID for either to leave the reference unset.
func InsertUser(t *testing.T, db *mongo.Database, orgID, roleID primitive.ObjectID, username string) models.User {
	t.Helper()
	u := baseUser(t, username)
	if !orgID.IsZero() {
		u.OrganizationID = &orgID
	}
	if !roleID.IsZero() {
		u.RoleID = &roleID
	}
	insertUser(t, db, u)
	return u
}

// InsertOrgAdmin inserts an org-admin for the organization.
func InsertOrgAdmin(t *testing.T, db *mongo.Database, orgID primitive.ObjectID, username string) models.User {
	t.Helper()
	u := baseUser(t, username)
	u.OrganizationID = &orgID
	u.IsOrgAdmin = true
	insertUser(t, db, u)
	return u
}

// InsertSuperuser inserts a superuser with no organization.
func InsertSuperuser(t *testing.T, db *mongo.Database, username string) models.User {
	t.Helper()
	u := baseUser(t, username)
	u.IsSuperuser = true
	insertUser(t, db, u)
	return u
}

func baseUser(t *testing.T, username string) models.User {
	t.Helper()
	hash, err := authutil.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	return models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		Email:        username + "@example.com",
		FirstName:    "Test",
		PasswordHash: hash,
		Status:       status.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func insertUser(t *testing.T, db *mongo.Database, u models.User) {
	t.Helper()
	if _, err := db.Collection("users").InsertOne(context.Background(), u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
}
