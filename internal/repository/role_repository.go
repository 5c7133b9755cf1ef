package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const roleColumns = `id, name, permissions, created_at, updated_at`

// RoleRepository reads and seeds the role lookup table.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs a RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns every role ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles ORDER BY name`
	roles := make([]models.Role, 0)
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// FindByID returns the role with the given id.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return &role, nil
}

// FindByName returns the role with the given name.
func (r *RoleRepository) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, string(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return &role, nil
}

// Upsert creates the role or refreshes its permissions.
func (r *RoleRepository) Upsert(ctx context.Context, name models.RoleName, permissions []string) (*models.Role, error) {
	if permissions == nil {
		permissions = []string{}
	}
	const query = `INSERT INTO roles (id, name, permissions, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (name) DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = EXCLUDED.updated_at
RETURNING ` + roleColumns
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, uuid.NewString(), string(name), pq.Array(permissions), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("upsert role %s: %w", name, err)
	}
	return &role, nil
}
