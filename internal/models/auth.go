package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal resolved for a request.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  RoleName `json:"role"`
}

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...RoleName) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (i *Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}

// JWTClaims is the session token payload. The subject is the user id.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// RegisterRequest creates a student account.
type RegisterRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=120"`
	Email          string `json:"email" validate:"required,email"`
	StudentID      string `json:"studentId" validate:"required,student_id"`
	Password       string `json:"password" validate:"required,min=6"`
	StudentCardURL string `json:"studentCardUrl" validate:"omitempty,max=1024"`
}

// LoginRequest authenticates by student id or email.
type LoginRequest struct {
	StudentID string `json:"studentId" validate:"required_without=Email"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required"`
}

// AuthResponse returns the session token with the user profile.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

// UserInfo describes a user in auth and profile responses.
type UserInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	StudentID       string   `json:"studentId"`
	Role            RoleName `json:"role"`
	StudentCardURL  *string  `json:"studentCardUrl,omitempty"`
	ProfilePhotoURL *string  `json:"profilePhotoUrl,omitempty"`
}

// NewUserInfo projects a user for responses.
func NewUserInfo(u User) UserInfo {
	return UserInfo{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		StudentID:       u.StudentID,
		Role:            u.Role(),
		StudentCardURL:  u.StudentCardURL,
		ProfilePhotoURL: u.ProfilePhotoURL,
	}
}
