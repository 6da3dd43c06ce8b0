package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-testslot-api/api/swagger"
	"github.com/noah-isme/sma-testslot-api/internal/handler"
	"github.com/noah-isme/sma-testslot-api/internal/middleware"
	"github.com/noah-isme/sma-testslot-api/internal/repository"
	"github.com/noah-isme/sma-testslot-api/internal/service"
	"github.com/noah-isme/sma-testslot-api/migrations"
	"github.com/noah-isme/sma-testslot-api/pkg/cache"
	"github.com/noah-isme/sma-testslot-api/pkg/config"
	"github.com/noah-isme/sma-testslot-api/pkg/database"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
	"github.com/noah-isme/sma-testslot-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-testslot-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-testslot-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-testslot-api/pkg/response"
)

// App owns the wired services and the HTTP router.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store        repository.GraphStore
	Metrics      *service.MetricsService
	Cache        *service.CacheService
	Availability *service.AvailabilityService
	Scheduling   *service.SchedulingService
	Roster       *service.RosterService
	Exports      *service.ExportService
	Tokens       *service.TokenService

	cacheRepo *repository.CacheRepository
	router    *gin.Engine
}

// New connects the configured timetable store and optional roster cache, then
// wires services and routes.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics := service.NewMetricsService()

	store, err := openStore(ctx, cfg, metrics, log)
	if err != nil {
		return nil, err
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Roster.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn("roster cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client)
		}
	}

	return Assemble(cfg, log, store, metrics, cacheRepo), nil
}

// Assemble wires services and routes around an already opened store. cacheRepo
// may be nil, in which case roster caching stays off.
func Assemble(cfg *config.Config, log *zap.Logger, store repository.GraphStore, metrics *service.MetricsService, cacheRepo *repository.CacheRepository) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = service.NewMetricsService()
	}

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Roster.CacheTTL, log, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Roster.CacheTTL, log, false)
	}

	validate := validator.New()
	guard := service.NewConflictGuard(store)
	roster := service.NewRosterService(store, cacheSvc, cfg.Roster.CacheTTL)

	a := &App{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Metrics: metrics,
		Cache:   cacheSvc,
		Availability: service.NewAvailabilityService(service.AvailabilityServiceParams{
			Store:     store,
			Guard:     guard,
			Metrics:   metrics,
			Validator: validate,
			Location:  cfg.Location(),
		}),
		Scheduling: service.NewSchedulingService(service.SchedulingServiceParams{
			Store:     store,
			Guard:     guard,
			Cache:     cacheSvc,
			Metrics:   metrics,
			Validator: validate,
		}),
		Roster:    roster,
		Exports:   service.NewExportService(roster, cfg.Export.Title),
		Tokens:    service.NewTokenService(cfg.Auth.Secret, cfg.Auth.Expiration),
		cacheRepo: cacheRepo,
	}
	a.router = a.buildRouter()
	return a
}

func openStore(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, log *zap.Logger) (repository.GraphStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverNeo4j:
		driver, err := database.NewNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
		store := repository.NewNeo4jGraphStore(driver, cfg.Neo4j.Database, metrics)
		if err := store.EnsureConstraints(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		log.Info("timetable store ready", zap.String("driver", cfg.Store.Driver), zap.String("database", cfg.Neo4j.Database))
		return store, nil
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		log.Info("timetable store ready", zap.String("driver", config.StoreDriverPostgres), zap.String("database", cfg.Database.Name))
		return repository.NewPostgresGraphStore(db, metrics), nil
	}
}

func (a *App) buildRouter() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(a.Metrics, a.Store)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	scheduler := handler.NewSchedulerHandler(a.Availability, a.Scheduling)
	roster := handler.NewRosterHandler(a.Roster)
	exports := handler.NewExportHandler(a.Exports)

	api := r.Group(a.Config.APIPrefix)
	api.Use(middleware.Timeout(a.Config.Store.Timeout))
	api.GET("/teachers", roster.Teachers)
	api.GET("/teachers/:name/courses", roster.Courses)
	api.GET("/periods", scheduler.Periods)
	api.GET("/tests", roster.Tests)
	api.GET("/tests/export", exports.Export)
	api.GET("/metrics/summary", metricsHandler.Summary)

	if a.Config.Auth.Enabled {
		api.POST("/tests", middleware.JWT(a.Tokens), scheduler.Schedule)
	} else {
		api.POST("/tests", scheduler.Schedule)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	return r
}

// Handler exposes the router.
func (a *App) Handler() *gin.Engine {
	return a.router
}

// Close releases the store and cache connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.cacheRepo != nil {
		if err := a.cacheRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
