// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	dashboardfeature "github.com/dalemusser/orghub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/orghub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/orghub/internal/app/features/health"
	loginfeature "github.com/dalemusser/orghub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/orghub/internal/app/features/logout"
	organizationsfeature "github.com/dalemusser/orghub/internal/app/features/organizations"
	rolesfeature "github.com/dalemusser/orghub/internal/app/features/roles"
	usersfeature "github.com/dalemusser/orghub/internal/app/features/users"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup hooks have completed. OrgHub initializes the template engine,
// applies session middleware, and mounts the feature routers: login at the
// site root, dashboard, organization management, roles, and members.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request, so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(userstore.New(deps.OrgHubMongoDatabase)))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Trailing-slash URLs resolve to their canonical form.
	r.Use(middleware.StripSlashes)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.OrgHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Sign-in lives at the site root.
	loginHandler := loginfeature.NewHandler(deps.OrgHubMongoDatabase, sessionMgr, errLog, logger)
	loginfeature.Register(r, loginHandler)

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Role-based dashboard
	dashboardHandler := dashboardfeature.NewHandler(deps.OrgHubMongoDatabase, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Organization management (superuser); top-level paths, registered
	// directly on the root router.
	orgHandler := organizationsfeature.NewHandler(deps.OrgHubMongoDatabase, errLog, logger)
	organizationsfeature.Register(r, orgHandler, sessionMgr)

	// Role management (org-admin)
	rolesHandler := rolesfeature.NewHandler(deps.OrgHubMongoDatabase, errLog, logger)
	rolesfeature.Register(r, rolesHandler, sessionMgr)

	// Member management (org-admin)
	usersHandler := usersfeature.NewHandler(deps.OrgHubMongoDatabase, errLog, logger)
	r.Mount("/user", usersfeature.Routes(usersHandler, sessionMgr))

	return r, nil
}
