package models

import "time"

// RoleName is the authorization predicate carried by every identity.
type RoleName string

const (
	RoleStudent RoleName = "student"
	RoleSRC     RoleName = "src"
	RoleAdmin   RoleName = "admin"
)

// Valid reports whether the name is one of the seeded roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleStudent, RoleSRC, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered portal user.
type User struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Email           string    `db:"email" json:"email"`
	StudentID       string    `db:"student_id" json:"studentId"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	StudentCardURL  *string   `db:"student_card_url" json:"studentCardUrl,omitempty"`
	ProfilePhotoURL *string   `db:"profile_photo_url" json:"profilePhotoUrl,omitempty"`
	RoleID          *string   `db:"role_id" json:"roleId,omitempty"`
	RoleName        *string   `db:"role_name" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Role returns the joined role name, treating a missing reference as student.
func (u User) Role() RoleName {
	if u.RoleName == nil || *u.RoleName == "" {
		return RoleStudent
	}
	return RoleName(*u.RoleName)
}

// Summary returns the public author shape embedded in board responses.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the minimal user projection attached to posts and comments.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Search string
	Role   RoleName
	Limit  int
	Skip   int
}

// Pagination contains offset pagination metadata returned in list responses.
type Pagination struct {
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// NewPagination derives HasMore from the window and total.
func NewPagination(limit, skip, total int) *Pagination {
	return &Pagination{Limit: limit, Skip: skip, Total: total, HasMore: skip+limit < total}
}
