package models

import (
	"time"

	"github.com/lib/pq"
)

// Role is a named permission set referenced by users.
type Role struct {
	ID          string         `db:"id" json:"id"`
	Name        RoleName       `db:"name" json:"name"`
	Permissions pq.StringArray `db:"permissions" json:"permissions"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// DefaultRolePermissions is the seeded permission set per role.
var DefaultRolePermissions = map[RoleName][]string{
	RoleStudent: {},
	RoleSRC:     {"review_submissions"},
	RoleAdmin:   {"manage_users", "manage_roles"},
}
