package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type roleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	FindByID(ctx context.Context, id string) (*models.Role, error)
	FindByName(ctx context.Context, name models.RoleName) (*models.Role, error)
	Upsert(ctx context.Context, name models.RoleName, permissions []string) (*models.Role, error)
}

const roleCachePrefix = "roles:"

// RoleService resolves roles through a read-through cache.
type RoleService struct {
	repo   roleRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewRoleService constructs a RoleService. cache may be nil.
func NewRoleService(repo roleRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Get returns the role by id.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	key := roleCachePrefix + "id:" + id
	var cached models.Role
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, internalError(err, "failed to load role")
	}
	s.cache.Set(ctx, key, role, s.ttl)
	return role, nil
}

// GetByName returns the role by name.
func (s *RoleService) GetByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	key := roleCachePrefix + "name:" + string(name)
	var cached models.Role
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	role, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, internalError(err, "failed to load role")
	}
	s.cache.Set(ctx, key, role, s.ttl)
	return role, nil
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list roles")
	}
	return roles, nil
}

// SeedDefaults creates the student, src and admin roles with their permissions.
func (s *RoleService) SeedDefaults(ctx context.Context) ([]models.Role, error) {
	names := []models.RoleName{models.RoleStudent, models.RoleSRC, models.RoleAdmin}
	seeded := make([]models.Role, 0, len(names))
	for _, name := range names {
		role, err := s.repo.Upsert(ctx, name, models.DefaultRolePermissions[name])
		if err != nil {
			return nil, internalError(err, "failed to seed roles")
		}
		seeded = append(seeded, *role)
	}
	s.cache.Invalidate(ctx, roleCachePrefix+"*")
	s.logger.Info("roles seeded", zap.Int("count", len(seeded)))
	return seeded, nil
}
