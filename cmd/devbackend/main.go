package main

// Run the local stand-in for the wound tracking REST API:
//   go run ./cmd/devbackend

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/bootstrap"
	"woundtrack-backend/internal/devbackend"
	"woundtrack-backend/internal/shared/config"
	"woundtrack-backend/internal/shared/server"
	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/storage/db"
	"woundtrack-backend/internal/shared/storage/object"
	localstore "woundtrack-backend/internal/shared/storage/object/local"
	s3store "woundtrack-backend/internal/shared/storage/object/s3"
)

func main() {
	cfg := config.Load()
	if cfg.Env == "production" {
		log.Fatalf("devbackend must not run with ENV=production")
	}
	ctx := context.Background()

	catalog, err := bootstrap.LoadCatalog(cfg)
	if err != nil {
		log.Fatalf("catalog error: %v", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("object store error: %v", err)
	}

	var repo devbackend.Repo = devbackend.NewMemoryRepo()
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.RuntimeServer)
		if err != nil {
			log.Fatalf("database error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		repo = &devbackend.PGRepo{DB: sqlDB}
	} else {
		log.Printf("devbackend: DATABASE_URL empty; using in-memory repositories")
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())
	devbackend.NewHandler(devbackend.NewService(repo, store, catalog, cfg.MaxImageBytes)).RegisterRoutes(r.Group(""))

	addr := server.Addr(cfg.DevBackendPort)
	log.Printf("Starting dev backend on %s (object store %s)", addr, cfg.ObjectStoreType)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}
