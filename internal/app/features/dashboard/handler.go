package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/orghub/internal/app/features/errors"
	"github.com/dalemusser/orghub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Log:    logger,
	}
}

// ServeDashboard dispatches to the view for the signed-in user's access
// level. A member without an organization has nothing to see, so they are
// signed out rather than shown an empty page.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch {
	case authz.IsSuperuser(r):
		h.ServeSuperuser(w, r)
	case authz.IsOrgAdmin(r):
		h.ServeOrgAdmin(w, r)
	case authz.IsMember(r):
		if authz.UserOrgID(r).IsZero() {
			http.Redirect(w, r, "/logout", http.StatusSeeOther)
			return
		}
		h.ServeMember(w, r)
	default:
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
	}
}
