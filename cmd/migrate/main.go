package main

import (
	"context"
	"os"
	"time"

	mongoMigration "roombook/internal/migrations/mongo"
	userrepo "roombook/internal/users/repository"
	userservice "roombook/internal/users/service"
	uservalidator "roombook/internal/users/validator"
	"roombook/pkg/auth"
	"roombook/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	seedAdmin(ctx, cfg)
	cfg.Log.Info("Migration completed successfully")
}

// seedAdmin creates or promotes the bootstrap admin when ADMIN_EMAIL and
// ADMIN_PASSWORD are both set.
func seedAdmin(ctx context.Context, cfg *config.Config) {
	email, password := os.Getenv(config.EnvAdminEmail), os.Getenv(config.EnvAdminPassword)
	if email == "" || password == "" {
		cfg.Log.Info("No bootstrap admin configured, skipping")
		return
	}

	svc := userservice.NewUserService(
		userrepo.NewMongoUserRepository(cfg),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		uservalidator.NewUserValidator(cfg.Log),
		cfg,
	)
	user, err := svc.EnsureAdmin(ctx, email, password)
	if err != nil {
		cfg.Log.Fatal("Failed to ensure bootstrap admin", "email", email, "error", err)
	}
	cfg.Log.Info("Bootstrap admin ready", "user_id", user.ID, "email", user.Email)
}
