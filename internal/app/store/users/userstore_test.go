package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/indexes"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/orghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*Store, *mongo.Database, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return New(db), db, ctx
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return h
}

func TestCreateNormalizes(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")

	u, err := store.Create(ctx, models.User{
		Username:       "  Alice  ",
		Email:          " Alice@Example.COM ",
		FirstName:      " Alice ",
		PasswordHash:   hash(t, "secret123"),
		OrganizationID: &org.ID,
		RoleID:         &role.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "alice" || u.UsernameCI != "alice" {
		t.Errorf("username = %q / %q, want alice", u.Username, u.UsernameCI)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q", u.Email)
	}
	if u.Status != status.Active {
		t.Errorf("status = %q, want active", u.Status)
	}
}

func TestCreateRejectsRoleFromOtherOrg(t *testing.T) {
	store, db, ctx := setup(t)
	orgA := testutil.InsertOrganization(t, db, "Acme", false)
	orgB := testutil.InsertOrganization(t, db, "Beta", false)
	foreignRole := testutil.InsertRole(t, db, orgB.ID, "Editor")

	_, err := store.Create(ctx, models.User{
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   hash(t, "secret123"),
		OrganizationID: &orgA.ID,
		RoleID:         &foreignRole.ID,
	})
	if !errors.Is(err, ErrRoleOrgMismatch) {
		t.Fatalf("err = %v, want ErrRoleOrgMismatch", err)
	}
}

func TestCreateRejectsMissingRole(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	ghost := primitive.NewObjectID()

	_, err := store.Create(ctx, models.User{
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   hash(t, "secret123"),
		OrganizationID: &org.ID,
		RoleID:         &ghost,
	})
	if !errors.Is(err, ErrRoleOrgMismatch) {
		t.Fatalf("err = %v, want ErrRoleOrgMismatch", err)
	}
}

func TestCreateDuplicates(t *testing.T) {
	store, _, ctx := setup(t)

	if _, err := store.Create(ctx, models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash(t, "secret123"),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := store.Create(ctx, models.User{
		Username:     "ALICE",
		Email:        "other@example.com",
		PasswordHash: hash(t, "secret123"),
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("err = %v, want ErrDuplicateUsername", err)
	}

	_, err = store.Create(ctx, models.User{
		Username:     "bob",
		Email:        "alice@example.com",
		PasswordHash: hash(t, "secret123"),
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetByUsernameFoldsCase(t *testing.T) {
	store, db, ctx := setup(t)
	testutil.InsertUser(t, db, primitive.NilObjectID, primitive.NilObjectID, "alice")

	u, err := store.GetByUsername(ctx, "  ALICE ")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q", u.Username)
	}
}

func TestUpdateMemberKeepsPasswordWhenEmpty(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")
	member := testutil.InsertUser(t, db, org.ID, role.ID, "alice")

	err := store.UpdateMember(ctx, member.ID, org.ID, MemberUpdate{
		ProfileUpdate: ProfileUpdate{
			FirstName: "Alicia",
			Username:  "alice",
			Email:     "alice@example.com",
		},
		RoleID: role.ID,
	})
	if err != nil {
		t.Fatalf("UpdateMember: %v", err)
	}

	got, err := store.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FirstName != "Alicia" {
		t.Errorf("FirstName = %q", got.FirstName)
	}
	if got.PasswordHash != member.PasswordHash {
		t.Error("password hash changed on an empty password update")
	}

	newHash := hash(t, "newsecret1")
	err = store.UpdateMember(ctx, member.ID, org.ID, MemberUpdate{
		ProfileUpdate: ProfileUpdate{
			FirstName:    "Alicia",
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: newHash,
		},
		RoleID: role.ID,
	})
	if err != nil {
		t.Fatalf("UpdateMember with password: %v", err)
	}
	got, err = store.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PasswordHash != newHash {
		t.Error("password hash not replaced")
	}
}

func TestUpdateMemberRejectsForeignRole(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	other := testutil.InsertOrganization(t, db, "Beta", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")
	foreignRole := testutil.InsertRole(t, db, other.ID, "Editor")
	member := testutil.InsertUser(t, db, org.ID, role.ID, "alice")

	err := store.UpdateMember(ctx, member.ID, org.ID, MemberUpdate{
		ProfileUpdate: ProfileUpdate{Username: "alice", Email: "alice@example.com"},
		RoleID:        foreignRole.ID,
	})
	if !errors.Is(err, ErrRoleOrgMismatch) {
		t.Fatalf("err = %v, want ErrRoleOrgMismatch", err)
	}
}

func TestUpdateMemberScopesToOrg(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	other := testutil.InsertOrganization(t, db, "Beta", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")
	member := testutil.InsertUser(t, db, org.ID, role.ID, "alice")

	// The wrong organization in the filter means the target is invisible,
	// even with a role from that organization.
	foreignRole := testutil.InsertRole(t, db, other.ID, "Editor")
	err := store.UpdateMember(ctx, member.ID, other.ID, MemberUpdate{
		ProfileUpdate: ProfileUpdate{Username: "alice", Email: "alice@example.com"},
		RoleID:        foreignRole.ID,
	})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestDeleteInOrg(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	other := testutil.InsertOrganization(t, db, "Beta", false)
	member := testutil.InsertUser(t, db, org.ID, primitive.NilObjectID, "alice")

	n, err := store.DeleteInOrg(ctx, member.ID, other.ID)
	if err != nil {
		t.Fatalf("DeleteInOrg: %v", err)
	}
	if n != 0 {
		t.Fatal("cross-organization delete removed a document")
	}

	n, err = store.DeleteInOrg(ctx, member.ID, org.ID)
	if err != nil {
		t.Fatalf("DeleteInOrg: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted %d, want 1", n)
	}
}

func TestListMembersExcludesAdmins(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	testutil.InsertOrgAdmin(t, db, org.ID, "admin")
	testutil.InsertUser(t, db, org.ID, primitive.NilObjectID, "zoe")
	testutil.InsertUser(t, db, org.ID, primitive.NilObjectID, "alice")

	members, err := store.ListMembersByOrg(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListMembersByOrg: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].Username != "alice" || members[1].Username != "zoe" {
		t.Errorf("order = %q, %q; want alice, zoe", members[0].Username, members[1].Username)
	}
}

func TestFetcherRejectsDisabled(t *testing.T) {
	store, db, ctx := setup(t)
	org := testutil.InsertOrganization(t, db, "Acme", false)
	member := testutil.InsertUser(t, db, org.ID, primitive.NilObjectID, "alice")

	f := NewFetcher(store)
	su, err := f.FetchSessionUser(ctx, member.ID.Hex())
	if err != nil {
		t.Fatalf("FetchSessionUser: %v", err)
	}
	if su.Role != "member" {
		t.Errorf("Role = %q, want member", su.Role)
	}
	if su.OrganizationID != org.ID.Hex() {
		t.Errorf("OrganizationID = %q", su.OrganizationID)
	}

	_, err = db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": member.ID},
		bson.M{"$set": bson.M{"status": status.Disabled}})
	if err != nil {
		t.Fatalf("disable user: %v", err)
	}

	if _, err := f.FetchSessionUser(ctx, member.ID.Hex()); err == nil {
		t.Fatal("expected an error for a disabled account")
	}
}
