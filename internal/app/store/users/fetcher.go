package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher adapts the store to auth.UserFetcher so the session middleware
// refreshes the signed-in user from the database on each request.
type Fetcher struct {
	store *Store
}

func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

var errAccountDisabled = errors.New("account is disabled")

// FetchSessionUser loads the session user by hex ID. Disabled accounts
// return an error so the middleware treats them as signed out.
func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	u, err := f.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status == status.Disabled {
		return nil, errAccountDisabled
	}

	su := &auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FirstName,
		LoginID: u.Username,
		Role:    u.Class(),
	}
	if u.OrganizationID != nil {
		su.OrganizationID = u.OrganizationID.Hex()
	}
	return su, nil
}
