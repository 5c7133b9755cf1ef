package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type memoryCache struct {
	items map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func TestRoleServiceReadThroughCache(t *testing.T) {
	repo := newStubRoleRepo()
	cache := NewCacheService(&memoryCache{items: map[string][]byte{}}, nil, time.Minute, nil, true)
	svc := NewRoleService(repo, cache, time.Minute, nil)

	for i := 0; i < 3; i++ {
		role, err := svc.GetByName(context.Background(), models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, "role-admin", role.ID)
	}
	assert.Equal(t, 1, repo.findCalls)

	_, err := svc.Get(context.Background(), "role-missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRoleServiceSeedDefaults(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string]*models.Role{}}
	svc := NewRoleService(repo, nil, time.Minute, nil)

	roles, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, models.RoleStudent, roles[0].Name)
	assert.Contains(t, []string(repo.roles["role-admin"].Permissions), "manage_users")
}
