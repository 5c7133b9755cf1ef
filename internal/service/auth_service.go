package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type roleLookup interface {
	GetByName(ctx context.Context, name models.RoleName) (*models.Role, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
}

// AuthService registers users, issues session tokens and resolves tokens back
// into identities.
type AuthService struct {
	users     authUserRepository
	roles     roleLookup
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, roles roleLookup, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{users: users, roles: roles, validator: validate, logger: logger, config: config, now: time.Now}
}

// Register creates a student account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}
	user, err := s.createUser(ctx, req, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// CreateUserWithRole provisions a user directly, used by the operator CLI.
func (s *AuthService) CreateUserWithRole(ctx context.Context, req models.RegisterRequest, role models.RoleName) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid user payload")
	}
	return s.createUser(ctx, req, role)
}

func (s *AuthService) createUser(ctx context.Context, req models.RegisterRequest, roleName models.RoleName) (*models.User, error) {
	if err := s.ensureUnique(ctx, req.Email, req.StudentID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		StudentID:    req.StudentID,
		PasswordHash: string(hash),
	}
	if req.StudentCardURL != "" {
		card := req.StudentCardURL
		user.StudentCardURL = &card
	}
	role, err := s.roles.GetByName(ctx, roleName)
	switch {
	case err == nil:
		user.RoleID = &role.ID
		name := string(role.Name)
		user.RoleName = &name
	case appErrors.IsCode(err, appErrors.ErrNotFound.Code):
		s.logger.Warn("role missing, user created without role reference", zap.String("role", string(roleName)))
	default:
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok {
			return nil, duplicateUserError(constraint)
		}
		return nil, internalError(err, "failed to create user")
	}
	return user, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, email, studentID string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return internalError(err, "failed to check email")
	}
	if _, err := s.users.FindByStudentID(ctx, studentID); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "student id is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return internalError(err, "failed to check student id")
	}
	return nil
}

func duplicateUserError(constraint string) error {
	if constraint == repository.UsersStudentIDKey {
		return appErrors.Clone(appErrors.ErrConflict, "student id is already registered")
	}
	return appErrors.Clone(appErrors.ErrConflict, "email is already registered")
}

// Login authenticates by student id (or email) and password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	var (
		user *models.User
		err  error
	)
	if req.StudentID != "" {
		user, err = s.users.FindByStudentID(ctx, req.StudentID)
	} else {
		user, err = s.users.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, internalError(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, internalError(err, "failed to create session token")
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: models.NewUserInfo(*user)}, nil
}

// GenerateToken signs a session token for the user id.
func (s *AuthService) GenerateToken(userID string) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.config.TokenExpiry)
	claims := models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, algorithm and expiry and returns the subject.
func (s *AuthService) ParseToken(raw string) (string, error) {
	claims := &models.JWTClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Resolve maps a session token to the identity it belongs to. It fails closed:
// any problem, including storage errors, yields nil.
func (s *AuthService) Resolve(ctx context.Context, raw string) *models.Identity {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	userID, err := s.ParseToken(raw)
	if err != nil {
		s.logger.Debug("session token rejected", zap.Error(err))
		return nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return &models.Identity{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role()}
}
