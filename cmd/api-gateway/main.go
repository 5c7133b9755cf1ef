package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-portal-api/api/swagger"
	"github.com/noah-isme/student-portal-api/internal/bootstrap"
	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/pkg/cache"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/database"
	"github.com/noah-isme/student-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-portal-api/pkg/middleware/requestid"
)

// @title Student Portal API
// @version 1.0.0
// @description Accounts confirmation, ledger imports and the announcement board
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if _, err := maxprocs.Set(maxprocs.Logger(logr.Sugar().Infof)); err != nil {
		logr.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Acquire(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := database.Release(); err != nil {
			logr.Warn("failed to close database", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(ctx, db); err != nil {
			return err
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	deps, err := bootstrap.Build(ctx, cfg, db, redisClient, logr)
	if err != nil {
		return err
	}

	deps.Imports.Start(ctx)
	defer deps.Imports.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics, "/metrics", "/health", "/ready"))
	r.MaxMultipartMemory = cfg.Imports.MaxFileSizeBytes

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Storage.Driver == config.StorageDriverLocal && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.WithResponseMeta())
	handler.RegisterRoutes(api, handler.Handlers{
		Auth:          handler.NewAuthHandler(deps.Auth, handler.CookieConfig{Name: cfg.JWT.CookieName, Secure: cfg.JWT.CookieSecure}),
		Users:         handler.NewUserHandler(deps.Users, deps.Roles),
		Accounts:      handler.NewAccountHandler(deps.Confirmations, deps.Accounts),
		Imports:       handler.NewImportHandler(deps.Imports),
		Exports:       handler.NewExportHandler(deps.Exports),
		Uploads:       handler.NewUploadHandler(deps.Uploads),
		Announcements: handler.NewAnnouncementHandler(deps.Announcements),
	}, deps.Auth, cfg.JWT.CookieName)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
