// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	userstore "github.com/dalemusser/orghub/internal/app/store/users"
	"github.com/dalemusser/orghub/internal/app/system/authutil"
	"github.com/dalemusser/orghub/internal/app/system/indexes"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, timeouts.Ping())
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		OrgHubMongoClient:   client,
		OrgHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the unique indexes and seeds the main organization
// and the bootstrap superuser.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.OrgHubMongoDatabase

	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	if err := seedMainOrg(ctx, db, appCfg, logger); err != nil {
		return err
	}
	return seedSuperuser(ctx, db, appCfg, logger)
}

// seedMainOrg creates the main organization if none exists. Superuser
// accounts live here; it never appears in the tenant listing.
func seedMainOrg(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	orgs := organizationstore.New(db)

	_, err := orgs.GetMain(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("look up main organization: %w", err)
	}

	org, err := orgs.Create(ctx, models.Organization{
		Name:   appCfg.MainOrgName,
		IsMain: true,
	})
	if err != nil {
		return fmt.Errorf("create main organization: %w", err)
	}

	logger.Info("created main organization", zap.String("org_id", org.ID.Hex()), zap.String("name", org.Name))
	return nil
}

// seedSuperuser creates the bootstrap superuser when the users collection
// has none. superuser_password must be set on first startup; there is no
// default password.
func seedSuperuser(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"is_superuser": true})
	if err != nil {
		return fmt.Errorf("count superusers: %w", err)
	}
	if count > 0 {
		return nil
	}

	if appCfg.SuperuserPassword == "" {
		return fmt.Errorf("no superuser exists and superuser_password is not set; set ORGHUB_SUPERUSER_PASSWORD for first startup")
	}

	hash, err := authutil.HashPassword(appCfg.SuperuserPassword)
	if err != nil {
		return fmt.Errorf("hash superuser password: %w", err)
	}

	main, err := organizationstore.New(db).GetMain(ctx)
	if err != nil {
		return fmt.Errorf("load main organization: %w", err)
	}

	u, err := userstore.New(db).Create(ctx, models.User{
		Username:       appCfg.SuperuserUsername,
		Email:          appCfg.SuperuserEmail,
		FirstName:      "Administrator",
		PasswordHash:   hash,
		OrganizationID: &main.ID,
		IsSuperuser:    true,
	})
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}

	logger.Info("created bootstrap superuser", zap.String("username", u.Username))
	return nil
}
