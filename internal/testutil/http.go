package testutil

import (
	"context"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam attaches a chi route parameter to the request so handlers
// that call chi.URLParam can be exercised without a router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AsSuperuser attaches a superuser session to the request.
func AsSuperuser(r *http.Request, id primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      id.Hex(),
		Name:    "Test",
		LoginID: "root",
		Role:    "superuser",
	})
}

// AsOrgAdmin attaches an org-admin session for the organization.
func AsOrgAdmin(r *http.Request, id, orgID primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:             id.Hex(),
		Name:           "Test",
		LoginID:        "admin",
		Role:           "orgadmin",
		OrganizationID: orgID.Hex(),
	})
}

// AsMember attaches a member session for the organization.
func AsMember(r *http.Request, id, orgID primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:             id.Hex(),
		Name:           "Test",
		LoginID:        "member",
		Role:           "member",
		OrganizationID: orgID.Hex(),
	})
}
