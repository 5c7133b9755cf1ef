package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/student-portal-api/internal/models"
)

type stubUserRepo struct {
	users     map[string]*models.User
	roleNames map[string]string
	findErr   error
	createErr error
}

func newStubUserRepo(users ...models.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*models.User), roleNames: map[string]string{}}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (m *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubUserRepo) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.StudentID == studentID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + user.StudentID
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *stubUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if filter.Role != "" && u.Role() != filter.Role {
			continue
		}
		out = append(out, *u)
	}
	total := len(out)
	if filter.Skip >= len(out) {
		return []models.User{}, total, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *stubUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *stubUserRepo) UpdateRole(ctx context.Context, userID, roleID string) error {
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RoleID = &roleID
	if name, ok := m.roleNames[roleID]; ok {
		u.RoleName = &name
	}
	return nil
}

type stubRoleRepo struct {
	roles     map[string]*models.Role
	findCalls int
}

func newStubRoleRepo() *stubRoleRepo {
	repo := &stubRoleRepo{roles: make(map[string]*models.Role)}
	for _, name := range []models.RoleName{models.RoleStudent, models.RoleSRC, models.RoleAdmin} {
		repo.roles["role-"+string(name)] = &models.Role{ID: "role-" + string(name), Name: name, Permissions: pq.StringArray{}}
	}
	return repo
}

func (r *stubRoleRepo) List(ctx context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *stubRoleRepo) FindByID(ctx context.Context, id string) (*models.Role, error) {
	r.findCalls++
	if role, ok := r.roles[id]; ok {
		copy := *role
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubRoleRepo) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	r.findCalls++
	for _, role := range r.roles {
		if role.Name == name {
			copy := *role
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubRoleRepo) Upsert(ctx context.Context, name models.RoleName, permissions []string) (*models.Role, error) {
	id := "role-" + string(name)
	role := &models.Role{ID: id, Name: name, Permissions: pq.StringArray(permissions)}
	r.roles[id] = role
	copy := *role
	return &copy, nil
}

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}
