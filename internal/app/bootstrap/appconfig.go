// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, timeouts). AppConfig is everything specific to OrgHub:
// database connection, sessions, and the bootstrap superuser.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: orghub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Bootstrap superuser, created on startup when the users collection
	// has no superuser yet. The account lives in the main organization.
	SuperuserUsername string
	SuperuserEmail    string
	SuperuserPassword string

	// Display name of the main (non-tenant) organization.
	MainOrgName string
}
