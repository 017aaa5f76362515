package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/orghub/internal/app/features/errors"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the sign-in page and processes credential submissions.
type Handler struct {
	DB         *mongo.Database
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginFormData struct {
	Title    string
	Username string
	Error    string
}

// ServeLogin renders the sign-in form. A signed-in user is sent straight
// to their dashboard.
//
// Route: GET /
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, signedIn := auth.CurrentUser(r); signedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{Title: "Sign in"})
}

// HandleLogin checks the submitted credentials and creates the session.
// Unknown usernames, wrong passwords, and disabled accounts all produce
// the same message so the form does not leak which accounts exist.
//
// Route: POST /
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err, "Invalid form submission.", "/")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.renderFormWithError(w, r, "Invalid credentials.", username)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users := userstore.New(h.DB)
	u, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.renderFormWithError(w, r, "Invalid credentials.", username)
			return
		}
		h.ErrLog.LogServerError(w, r, "login user lookup failed", err, "A database error occurred. Please try again.", "/")
		return
	}

	if !authutil.CheckPassword(password, u.PasswordHash) {
		h.renderFormWithError(w, r, "Invalid credentials.", username)
		return
	}

	if u.Status == status.Disabled {
		h.Log.Info("sign-in attempt on disabled account", zap.String("username", u.Username))
		h.renderFormWithError(w, r, "Invalid credentials.", username)
		return
	}

	sess, err := h.SessionMgr.GetSession(r)
	if err != nil {
		// A cookie signed with an old key fails to decode; GetSession still
		// returns a usable fresh session, so sign in on that.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		}
	}
	h.SessionMgr.SignIn(sess, u.ID.Hex())
	if err := sess.Save(r, w); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Could not start a session. Please try again.", "/")
		return
	}

	h.Log.Info("user signed in", zap.String("username", u.Username), zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, username string) {
	templates.Render(w, r, "login", loginFormData{
		Title:    "Sign in",
		Username: username,
		Error:    msg,
	})
}
