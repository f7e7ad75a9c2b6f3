package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"woundtrack-backend/internal/reference"
	"woundtrack-backend/internal/services/health"
	"woundtrack-backend/internal/shared/config"
	"woundtrack-backend/internal/shared/server"
	"woundtrack-backend/internal/shared/server/middleware"
	"woundtrack-backend/internal/shared/storage/db"
	"woundtrack-backend/internal/submissions"
	"woundtrack-backend/internal/wizard"
	"woundtrack-backend/internal/woundapi"
)

const sweepInterval = time.Minute

// App holds shared dependencies of the BFF.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Catalog     *reference.Catalog
	Backend     *woundapi.Client
	Sessions    *wizard.MemoryStore
	Reference   *reference.Service
	Submissions *submissions.Service
	Wizard      *wizard.Service
	Health      *health.Service
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend := woundapi.New(cfg.BackendBaseURL, cfg.BackendTimeout)

	var journalRepo submissions.Repo
	if sqlDB != nil {
		journalRepo = &submissions.PGRepo{DB: sqlDB}
	} else {
		journalRepo = submissions.NewMemoryRepo()
	}
	submissionsSvc := submissions.NewService(journalRepo, backend)

	sessions := wizard.NewMemoryStore(cfg.WizardTTL)
	wizardSvc := wizard.NewService(sessions, backend, submissionsSvc, wizard.NewValidator(catalog), cfg.MaxImageBytes)
	referenceSvc := reference.NewService(catalog, backend)

	healthSvc := health.NewService()
	if sqlDB != nil {
		healthSvc.Register("database", sqlDB.PingContext)
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Catalog:     catalog,
		Backend:     backend,
		Sessions:    sessions,
		Reference:   referenceSvc,
		Submissions: submissionsSvc,
		Wizard:      wizardSvc,
		Health:      healthSvc,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Profiles:    backend,
		Health:      healthSvc,
		RateLimiter: middleware.NewRateLimiter(nil),
		Handlers: []server.RouteRegistrar{
			reference.NewHandler(referenceSvc),
			submissions.NewHandler(submissionsSvc),
			wizard.NewHandler(wizardSvc),
		},
	})

	return app, nil
}

// StartSweeper evicts expired wizard sessions until ctx is done.
func (a *App) StartSweeper(ctx context.Context) {
	go a.Sessions.Run(ctx, sweepInterval)
}

// LoadCatalog returns the catalog file named by the config, or the embedded one.
func LoadCatalog(cfg config.Config) (*reference.Catalog, error) {
	if path := strings.TrimSpace(cfg.ReferenceCatalogPath); path != "" {
		catalog, err := reference.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load reference catalog: %w", err)
		}
		return catalog, nil
	}
	return reference.Default(), nil
}

// OpenDB connects to Postgres using options suited to the current runtime.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	return db.Open(ctx, databaseURL, db.DetectRuntime())
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory submissions journal")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory submissions journal: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
