package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

func newUserService(users *stubUserRepo) *UserService {
	roles := NewRoleService(newStubRoleRepo(), nil, time.Minute, zap.NewNop())
	return NewUserService(users, roles, nil, zap.NewNop())
}

func seededUsers() *stubUserRepo {
	student := "student"
	src := "src"
	repo := newStubUserRepo(
		models.User{ID: "u1", Name: "Akosua Darko", Email: "akosua@example.edu", StudentID: "2211001", RoleName: &student},
		models.User{ID: "u2", Name: "Nana Ofori", Email: "nana@example.edu", StudentID: "2211002", RoleName: &src},
	)
	repo.roleNames = map[string]string{"role-student": "student", "role-src": "src", "role-admin": "admin"}
	return repo
}

func TestUserServiceProfile(t *testing.T) {
	svc := newUserService(seededUsers())
	ctx := context.Background()

	_, err := svc.Profile(ctx, nil)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	profile, err := svc.Profile(ctx, &models.Identity{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "2211001", profile.StudentID)

	photo := "https://cdn.example.edu/u1.png"
	updated, err := svc.UpdateProfile(ctx, &models.Identity{ID: "u1"}, dto.UpdateProfileRequest{Name: "Akosua D.", Email: "AKOSUA.D@example.edu", ProfilePhotoURL: &photo})
	require.NoError(t, err)
	assert.Equal(t, "akosua.d@example.edu", updated.Email)
	require.NotNil(t, updated.ProfilePhotoURL)
	assert.Equal(t, photo, *updated.ProfilePhotoURL)

	_, err = svc.UpdateProfile(ctx, &models.Identity{ID: "u1"}, dto.UpdateProfileRequest{Name: "Akosua", Email: "nana@example.edu"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.UpdateProfile(ctx, &models.Identity{ID: "u1"}, dto.UpdateProfileRequest{Name: "Akosua", Email: "not-an-email"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceListAndChangeRole(t *testing.T) {
	users := seededUsers()
	svc := newUserService(users)
	ctx := context.Background()
	admin := &models.Identity{ID: "adm", Role: models.RoleAdmin}

	list, page, err := svc.List(ctx, dto.UserListQuery{Role: "src"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].ID)
	assert.Equal(t, 1, page.Total)

	_, _, err = svc.List(ctx, dto.UserListQuery{Role: "teacher"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	changed, err := svc.ChangeRole(ctx, admin, dto.ChangeRoleRequest{UserID: "u1", RoleID: "role-src"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSRC, changed.Role)

	_, err = svc.ChangeRole(ctx, admin, dto.ChangeRoleRequest{UserID: "u1", RoleID: "role-unknown"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.ChangeRole(ctx, admin, dto.ChangeRoleRequest{UserID: "ghost", RoleID: "role-admin"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
