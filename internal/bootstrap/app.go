package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/cascade"
	"hrms-backend/internal/dailyops"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/queue"
	"hrms-backend/internal/services/health"
	"hrms-backend/internal/shared/config"
	"hrms-backend/internal/shared/server"
	"hrms-backend/internal/shared/server/middleware"
	"hrms-backend/internal/shared/storage/db"
	localstore "hrms-backend/internal/shared/storage/object/local"
	s3store "hrms-backend/internal/shared/storage/object/s3"
	"hrms-backend/internal/shared/telemetry"
	"hrms-backend/internal/stats"
	"hrms-backend/internal/store"
)

const rateLimitKeyPrefix = "hrms:ratelimit:"

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Redis    *redis.Client
	Store    *store.Transactor
	Rules    *cascade.RuleSet
	Activity *activity.Logger
	Events   cascade.Publisher
	Cascade  *cascade.Service
	DailyOps *dailyops.Runner
	Health   *health.Service
	Limiter  middleware.Limiter
}

// Build prepares every dependency and the router. ctx bounds background
// work such as the rules file watcher.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.StoreBackend) == "" {
		cfg.StoreBackend = config.BackendFile
	}

	app := &App{Config: cfg}
	backend, err := app.buildStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store.NewTransactor(backend)

	if err := app.buildRedis(ctx); err != nil {
		app.Close()
		return nil, err
	}

	rules, err := buildRules(ctx, cfg.CascadeRulesFile)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Rules = rules

	app.Activity = activity.NewLogger(nil)
	app.Cascade = cascade.NewService(app.Store, app.Rules, app.Activity, app.Events)
	app.DailyOps = dailyops.NewRunner(app.Store, app.Activity, app.Events, cfg.StaleAfter)
	app.Health = health.NewService(app.Store, backend.Name())

	if cfg.SeedDemoData {
		seeded, err := app.Store.SeedIfEmpty(ctx, hr.DemoSnapshot(time.Now()))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			telemetry.Info("bootstrap.seeded", map[string]any{"store": backend.Name()})
		}
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		CascadeHandler:  cascade.NewHandler(app.Cascade),
		StatsHandler:    stats.NewHandler(app.Store, nil),
		ActivityHandler: &activity.Handler{Store: app.Store},
		Health:          app.Health,
		Limiter:         app.Limiter,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":     cfg.Env,
		"store":   backend.Name(),
		"redis":   app.Redis != nil,
		"rules":   app.Rules.Current().Source,
		"seeding": cfg.SeedDemoData,
	})
	return app, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func (a *App) buildStore(ctx context.Context) (store.Store, error) {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(nil), nil
	case config.BackendS3:
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("STORE_BACKEND=s3 requires S3_BUCKET")
		}
		objects, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store.NewDocumentStore(objects, cfg.SnapshotKey, config.BackendS3), nil
	case config.BackendPostgres:
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, err
		}
		a.DB = sqlDB
		if err := db.RunMigrations(ctx, sqlDB, db.DialectPostgres); err != nil {
			return nil, err
		}
		return store.NewSQLStore(sqlDB, db.DialectPostgres, ""), nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath, db.OptionsFromEnv(db.DefaultSQLiteOptions()))
		if err != nil {
			return nil, err
		}
		a.DB = sqlDB
		if err := db.RunMigrations(ctx, sqlDB, db.DialectSQLite); err != nil {
			return nil, err
		}
		return store.NewSQLStore(sqlDB, db.DialectSQLite, ""), nil
	default:
		return store.NewDocumentStore(localstore.New(cfg.LocalStoreDir), cfg.SnapshotKey, config.BackendFile), nil
	}
}

// Without REDIS_URL the limiter stays in-process and activity is not streamed.
func (a *App) buildRedis(ctx context.Context) error {
	if strings.TrimSpace(a.Config.RedisURL) == "" {
		return nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	a.Redis = client
	a.Limiter = middleware.NewRedisLimiter(client, rateLimitKeyPrefix)

	stream, err := queue.NewRedisStreamClient(client, a.Config.ActivityStream, 0)
	if err != nil {
		return err
	}
	a.Events = queue.NewPublisher(stream)
	return nil
}

func buildRules(ctx context.Context, path string) (*cascade.RuleSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return cascade.NewRuleSet(nil), nil
	}
	rules, err := cascade.LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	rs := cascade.NewRuleSet(rules)
	if err := cascade.WatchRulesFile(ctx, path, rs); err != nil {
		telemetry.Warn("bootstrap.rules_watch_disabled", map[string]any{"path": path, "error": err})
	}
	return rs, nil
}
