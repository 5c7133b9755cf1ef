package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, userID, roleID string) error
}

type roleGetter interface {
	Get(ctx context.Context, id string) (*models.Role, error)
}

// UserService handles profiles and admin user management.
type UserService struct {
	repo      userRepository
	roles     roleGetter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(repo userRepository, roles roleGetter, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, roles: roles, validator: validate, logger: logger}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to load user")
	}
	return user, nil
}

// Profile returns the caller's profile.
func (s *UserService) Profile(ctx context.Context, identity *models.Identity) (*models.UserInfo, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.Get(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	info := models.NewUserInfo(*user)
	return &info, nil
}

// UpdateProfile rewrites the caller's name, email and document links.
func (s *UserService) UpdateProfile(ctx context.Context, identity *models.Identity, req dto.UpdateProfileRequest) (*models.UserInfo, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}

	user, err := s.Get(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, req.Email) {
		existing, err := s.repo.FindByEmail(ctx, req.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return nil, internalError(err, "failed to check email")
		}
	}

	user.Name = req.Name
	user.Email = req.Email
	if req.StudentCardURL != nil {
		user.StudentCardURL = optionalString(*req.StudentCardURL)
	}
	if req.ProfilePhotoURL != nil {
		user.ProfilePhotoURL = optionalString(*req.ProfilePhotoURL)
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if _, ok := repository.UniqueViolation(err); ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to update profile")
	}
	info := models.NewUserInfo(*user)
	return &info, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) ([]models.UserInfo, *models.Pagination, error) {
	role := models.RoleName(strings.ToLower(strings.TrimSpace(query.Role)))
	if role != "" && !role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of student, src, admin")
	}
	limit, skip := normalizePage(query.Limit, query.Skip, 0, 0)
	users, total, err := s.repo.List(ctx, models.UserFilter{
		Search: strings.TrimSpace(query.Search),
		Role:   role,
		Limit:  limit,
		Skip:   skip,
	})
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	infos := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, models.NewUserInfo(u))
	}
	return infos, models.NewPagination(limit, skip, total), nil
}

// ChangeRole assigns a role to a user.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.Identity, req dto.ChangeRoleRequest) (*models.UserInfo, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.RoleID = strings.TrimSpace(req.RoleID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid role payload")
	}
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, req.UserID, role.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to change role")
	}
	user, err := s.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user role changed", zap.String("user_id", user.ID), zap.String("role", string(role.Name)), zap.String("actor_id", actor.ID))
	info := models.NewUserInfo(*user)
	return &info, nil
}
