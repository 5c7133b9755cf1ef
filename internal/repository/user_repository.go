package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-portal-api/internal/models"
)

const userColumns = `u.id, u.name, u.email, u.student_id, u.password_hash, u.student_card_url, u.profile_photo_url, u.role_id, r.name AS role_name, u.created_at, u.updated_at`

const userFrom = `FROM users u LEFT JOIN roles r ON r.id = u.role_id`

// Unique index names surfaced to services for conflict messages.
const (
	UsersEmailKey     = "users_email_key"
	UsersStudentIDKey = "users_student_id_key"
)

// UserRepository provides database access for portal users.
type UserRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func (r *UserRepository) findOne(ctx context.Context, op, where string, arg interface{}) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE %s LIMIT 1", userColumns, userFrom, where)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "find user by id", "u.id = $1", id)
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "find user by email", "LOWER(u.email) = LOWER($1)", email)
}

// FindByStudentID returns a user by student number.
func (r *UserRepository) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	return r.findOne(ctx, "find user by student id", "u.student_id = $1", studentID)
}

// List returns users matching the filter with the total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := squirrel.And{}
	if filter.Search != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		where = append(where, squirrel.Or{
			squirrel.Like{"LOWER(u.name)": term},
			squirrel.Like{"LOWER(u.email)": term},
			squirrel.Like{"u.student_id": term},
		})
	}
	if filter.Role != "" {
		if filter.Role == models.RoleStudent {
			where = append(where, squirrel.Or{squirrel.Eq{"r.name": string(filter.Role)}, squirrel.Eq{"u.role_id": nil}})
		} else {
			where = append(where, squirrel.Eq{"r.name": string(filter.Role)})
		}
	}

	listQuery, args, err := r.sb.Select(userColumns).
		From("users u").
		LeftJoin("roles r ON r.id = u.role_id").
		Where(where).
		OrderBy("u.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users: %w", err)
	}
	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").
		From("users u").
		LeftJoin("roles r ON r.id = u.role_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// ListAll returns every user ordered by creation, for exports.
func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s %s ORDER BY u.created_at DESC", userColumns, userFrom)
	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	return users, nil
}

// Create inserts a new user. Unique violations are returned unwrapped by pq
// so callers can inspect the constraint.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, student_id, password_hash, student_card_url, profile_photo_url, role_id, created_at, updated_at) VALUES (:id, :name, :email, :student_id, :password_hash, :student_card_url, :profile_photo_url, :role_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile writes the self-service profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET name = :name, email = :email, student_card_url = :student_card_url, profile_photo_url = :profile_photo_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectAffected(res, "update profile")
}

// UpdateRole points the user at a different role.
func (r *UserRepository) UpdateRole(ctx context.Context, userID, roleID string) error {
	const query = `UPDATE users SET role_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, roleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return expectAffected(res, "update user role")
}

// expectAffected maps a zero row update onto sql.ErrNoRows.
func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
