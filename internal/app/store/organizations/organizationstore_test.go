package organizationstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/orghub/internal/app/system/indexes"
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

func TestCreateAndGet(t *testing.T) {
	store, _, ctx := setup(t)

	org, err := store.Create(ctx, models.Organization{Name: "Acme Corp", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.ID.IsZero() {
		t.Fatal("expected ID to be assigned")
	}
	if org.NameCI != "acme corp" {
		t.Errorf("NameCI = %q, want %q", org.NameCI, "acme corp")
	}

	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Acme Corp" || got.Address != "1 Main St" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	store, _, ctx := setup(t)

	if _, err := store.Create(ctx, models.Organization{Name: "Acme"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := store.Create(ctx, models.Organization{Name: "ACME"})
	if !errors.Is(err, ErrDuplicateOrganization) {
		t.Fatalf("err = %v, want ErrDuplicateOrganization", err)
	}
}

func TestListTenantsExcludesMain(t *testing.T) {
	store, db, ctx := setup(t)

	testutil.InsertOrganization(t, db, "Main", true)
	testutil.InsertOrganization(t, db, "Zeta", false)
	testutil.InsertOrganization(t, db, "Alpha", false)

	tenants, err := store.ListTenants(ctx)
	if err != nil {
		t.Fatalf("ListTenants: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("len = %d, want 2", len(tenants))
	}
	if tenants[0].Name != "Alpha" || tenants[1].Name != "Zeta" {
		t.Errorf("order = %q, %q; want Alpha, Zeta", tenants[0].Name, tenants[1].Name)
	}
}

func TestUpdate(t *testing.T) {
	store, _, ctx := setup(t)

	org, err := store.Create(ctx, models.Organization{Name: "Old Name"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Update(ctx, org.ID, "New Name", "2 Side St"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "New Name" || got.Address != "2 Side St" {
		t.Errorf("got %+v", got)
	}

	err = store.Update(ctx, primitive.NewObjectID(), "Ghost", "")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	store, db, ctx := setup(t)

	org := testutil.InsertOrganization(t, db, "Doomed", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")
	member := testutil.InsertUser(t, db, org.ID, role.ID, "worker")

	other := testutil.InsertOrganization(t, db, "Survivor", false)
	otherRole := testutil.InsertRole(t, db, other.ID, "Editor")
	testutil.InsertUser(t, db, other.ID, otherRole.ID, "bystander")

	n, err := store.Delete(ctx, org.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted %d orgs, want 1", n)
	}

	// Roles of the deleted org are gone; the other org keeps its role.
	count, err := db.Collection("roles").CountDocuments(ctx, bson.M{"organization_id": org.ID})
	if err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if count != 0 {
		t.Errorf("roles remaining = %d, want 0", count)
	}

	// The member survives with organization and role unset.
	var u models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": member.ID}).Decode(&u); err != nil {
		t.Fatalf("find member: %v", err)
	}
	if u.OrganizationID != nil || u.RoleID != nil {
		t.Errorf("member references not cleared: org=%v role=%v", u.OrganizationID, u.RoleID)
	}

	// The other org and its member are untouched.
	var ou models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"username": "bystander"}).Decode(&ou); err != nil {
		t.Fatalf("find bystander: %v", err)
	}
	if ou.OrganizationID == nil || *ou.OrganizationID != other.ID {
		t.Error("bystander lost their organization")
	}
}

func TestNameExistsForOther(t *testing.T) {
	store, _, ctx := setup(t)

	a, err := store.Create(ctx, models.Organization{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Organization{Name: "Beta"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	taken, err := store.NameExistsForOther(ctx, "beta", a.ID)
	if err != nil {
		t.Fatalf("NameExistsForOther: %v", err)
	}
	if !taken {
		t.Error("expected Beta to be taken by another organization")
	}

	// The name is folded inside the store, so the check fires for the
	// name exactly as the user typed it.
	taken, err = store.NameExistsForOther(ctx, "Beta", a.ID)
	if err != nil {
		t.Fatalf("NameExistsForOther: %v", err)
	}
	if !taken {
		t.Error("expected mixed-case Beta to be taken by another organization")
	}

	taken, err = store.NameExistsForOther(ctx, "ACME", a.ID)
	if err != nil {
		t.Fatalf("NameExistsForOther: %v", err)
	}
	if taken {
		t.Error("an organization's own name should not count as taken")
	}
}

func TestCascadePreview(t *testing.T) {
	store, db, ctx := setup(t)

	org := testutil.InsertOrganization(t, db, "Acme", false)
	role := testutil.InsertRole(t, db, org.ID, "Editor")
	testutil.InsertRole(t, db, org.ID, "Viewer")
	testutil.InsertUser(t, db, org.ID, role.ID, "alice")

	other := testutil.InsertOrganization(t, db, "Beta", false)
	testutil.InsertRole(t, db, other.ID, "Editor")
	testutil.InsertUser(t, db, other.ID, primitive.NilObjectID, "bob")

	roles, users, err := store.CascadePreview(ctx, org.ID)
	if err != nil {
		t.Fatalf("CascadePreview: %v", err)
	}
	if roles != 2 {
		t.Errorf("roles = %d, want 2", roles)
	}
	if users != 1 {
		t.Errorf("users = %d, want 1", users)
	}
}
