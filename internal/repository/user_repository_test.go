package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
)

var userRowColumns = []string{"id", "name", "email", "student_id", "password_hash", "student_card_url", "profile_photo_url", "role_id", "role_name", "created_at", "updated_at"}

func TestUserFindByStudentID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "Ama Mensah", "ama@example.com", "1234567", "hash", nil, nil, "r1", "src", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE u.student_id = $1 LIMIT 1")).
		WithArgs("1234567").
		WillReturnRows(rows)

	user, err := repo.FindByStudentID(context.Background(), "1234567")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSRC, user.Role())
	assert.Equal(t, "Ama Mensah", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserWithoutRoleIsStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(u.email) = LOWER($1)")).
		WithArgs("KOFI@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u2", "Kofi", "kofi@example.com", "7654321", "hash", nil, nil, nil, nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "KOFI@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role())
}

func TestUserListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT u.id, .* FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE \(\(LOWER\(u.name\) LIKE \$1 OR LOWER\(u.email\) LIKE \$2 OR u.student_id LIKE \$3\) AND r.name = \$4\) ORDER BY u.created_at DESC LIMIT 10 OFFSET 0`).
		WithArgs("%ama%", "%ama%", "%ama%", "src").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "Ama", "ama@example.com", "1234567", "hash", nil, nil, "r1", "src", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE")).
		WithArgs("%ama%", "%ama%", "%ama%", "src").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Search: " Ama ", Role: models.RoleSRC, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: UsersStudentIDKey})

	err := repo.Create(context.Background(), &models.User{Name: "Ama", Email: "a@example.com", StudentID: "1234567", PasswordHash: "h"})
	require.Error(t, err)
	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, UsersStudentIDKey, constraint)
}

func TestUserUpdateRoleMissingUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role_id = $2")).
		WithArgs("u9", "r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), "u9", "r1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRoleUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roles")).
		WithArgs(sqlmock.AnyArg(), "src", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "permissions", "created_at", "updated_at"}).
			AddRow("r1", "src", []byte("{review_submissions}"), now, now))

	role, err := repo.Upsert(context.Background(), models.RoleSRC, []string{"review_submissions"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSRC, role.Name)
	assert.Equal(t, []string{"review_submissions"}, []string(role.Permissions))
	assert.NoError(t, mock.ExpectationsWereMet())
}
