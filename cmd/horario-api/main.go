package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/horario-api/api/swagger"
	"github.com/noah-isme/horario-api/internal/handler"
	"github.com/noah-isme/horario-api/internal/middleware"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/internal/service"
	"github.com/noah-isme/horario-api/pkg/cache"
	"github.com/noah-isme/horario-api/pkg/config"
	"github.com/noah-isme/horario-api/pkg/database"
	"github.com/noah-isme/horario-api/pkg/jobs"
	"github.com/noah-isme/horario-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/horario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/horario-api/pkg/middleware/requestid"
)

// @title Horario API
// @version 1.0.0
// @description University timetable engine: placements, availability, sections and layered grids
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, grid cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	restrictions, err := config.LoadCareerRestrictions(cfg.Scheduler.RulesFile)
	if err != nil {
		logr.Fatal("failed to load instructor rules", zap.Error(err))
	}

	var (
		validate    = validator.New()
		metricsSvc  = service.NewMetricsService()
		cacheSvc    = service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.GridCacheTTL, logr, redisClient != nil)
		index       = repository.NewPlacementIndex()
		gate        = service.NewWriteGate()
		tx          = database.NewTxRunner(db)
		terms       = repository.NewTermRepository(db)
		blocks      = repository.NewTimeBlockRepository(db)
		rooms       = repository.NewRoomRepository(db)
		catalog     = repository.NewCatalogRepository(db)
		instructors = repository.NewInstructorRepository(db)
		sections    = repository.NewSectionRepository(db)
		placements  = repository.NewPlacementRepository(db)
		rules       = service.InstructorRules{service.NewCareerRestrictionTable(restrictions)}
	)

	invalidations := jobs.NewQueue("grid-cache-invalidation", cacheSvc.RetryInvalidation, jobs.QueueConfig{
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	invalidations.Start(ctx)
	defer invalidations.Stop()
	cacheSvc.SetRetryQueue(invalidations)

	termSvc := service.NewTermService(terms, logr)
	placementSvc := service.NewPlacementService(service.PlacementServiceParams{
		Placements:  placements,
		Sections:    sections,
		Courses:     catalog,
		Rooms:       rooms,
		TimeBlocks:  blocks,
		Instructors: instructors,
		Terms:       termSvc,
		Index:       index,
		Tx:          tx,
		Gate:        gate,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
		Config:      cfg.Scheduler,
	})
	availabilitySvc := service.NewAvailabilityService(rooms, instructors, blocks, termSvc, index, rules, validate, logr, cfg.Scheduler)
	sectionSvc := service.NewSectionService(sections, catalog, placements, index, tx, gate, cacheSvc, validate, logr, cfg.Scheduler)
	gridSvc := service.NewGridService(blocks, catalog, termSvc, index, cacheSvc, validate, logr, cfg.Scheduler)

	if _, err := termSvc.Current(ctx); err != nil {
		logr.Fatal("failed to resolve current term", zap.Error(err))
	}
	loaded, err := placementSvc.RebuildIndex(ctx)
	if err != nil {
		logr.Fatal("failed to load placements", zap.Error(err))
	}
	logr.Info("placement index loaded", zap.Int("placements", loaded), zap.Int("rules", len(restrictions)))

	syncer := service.NewIndexSyncer(placementSvc, cfg.Scheduler.IndexResyncCron, logr)
	if err := syncer.Start(); err != nil {
		logr.Fatal("failed to start index resync", zap.Error(err))
	}
	defer syncer.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, index)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Handlers{
		Terms:        handler.NewTermHandler(termSvc),
		Placements:   handler.NewPlacementHandler(placementSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Sections:     handler.NewSectionHandler(sectionSvc),
		Grid:         handler.NewGridHandler(gridSvc),
	}.Register(r.Group(cfg.APIPrefix))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
