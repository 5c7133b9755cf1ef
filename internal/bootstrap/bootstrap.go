// Package bootstrap builds the repositories and services shared by the HTTP
// server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/export"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

// Dependencies holds every constructed service.
type Dependencies struct {
	Validator     *validator.Validate
	Metrics       *service.MetricsService
	Cache         *service.CacheService
	Store         storage.ObjectStore
	Signer        *storage.SignedURLSigner
	Roles         *service.RoleService
	Auth          *service.AuthService
	Users         *service.UserService
	Accounts      *service.AccountService
	Confirmations *service.ConfirmationService
	Imports       *service.ImportService
	Announcements *service.AnnouncementService
	Exports       *service.ExportService
	Uploads       *service.UploadService
}

// Build wires repositories and services. redisClient may be nil, in which
// case caching is disabled.
func Build(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) (*Dependencies, error) {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logger)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.RoleTTL, logger, cacheRepo.Enabled())
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	importJobRepo := repository.NewImportJobRepository(db)

	roles := service.NewRoleService(roleRepo, cacheSvc, cfg.Cache.RoleTTL, logger)

	deps := &Dependencies{
		Validator: validate,
		Metrics:   metrics,
		Cache:     cacheSvc,
		Store:     store,
		Signer:    signer,
		Roles:     roles,
		Auth: service.NewAuthService(userRepo, roles, validate, logger, service.AuthConfig{
			Secret:      cfg.JWT.Secret,
			TokenExpiry: cfg.JWT.Expiration,
			Issuer:      cfg.JWT.Issuer,
		}),
		Users:         service.NewUserService(userRepo, roles, validate, logger),
		Accounts:      service.NewAccountService(accountRepo, validate, logger),
		Confirmations: service.NewConfirmationService(accountRepo, validate, metrics, logger),
		Imports: service.NewImportService(accountRepo, importJobRepo, store, signer, metrics, logger, service.ImportServiceConfig{
			MaxFileSize:        cfg.Imports.MaxFileSizeBytes,
			OverwriteConfirmed: cfg.Imports.OverwriteConfirmed,
			Workers:            cfg.Imports.WorkerConcurrency,
			MaxRetries:         cfg.Imports.WorkerRetries,
			QueueBuffer:        cfg.Imports.QueueBuffer,
			APIPrefix:          cfg.APIPrefix,
		}),
		Announcements: service.NewAnnouncementService(announcementRepo, cacheSvc, validate, metrics, logger, service.AnnouncementServiceConfig{
			NormalizeHeaders: cfg.Announcements.NormalizeHeaders,
			DefaultPageSize:  cfg.Announcements.DefaultPageSize,
			MaxPageSize:      cfg.Announcements.MaxPageSize,
			CategoryTTL:      cfg.Cache.CategoryTTL,
		}),
		Exports: service.NewExportService(accountRepo, userRepo, export.Renderers(), logger),
		Uploads: service.NewUploadService(store, signer, logger, service.UploadServiceConfig{
			MaxFileSize:  cfg.Storage.MaxUploadBytes,
			AllowedMIMEs: cfg.Storage.AllowedMIMEs,
		}),
	}
	return deps, nil
}
