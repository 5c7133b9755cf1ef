package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type announcementServiceMock struct {
	created []models.Announcement
}

func (m *announcementServiceMock) Create(ctx context.Context, identity *models.Identity, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	if !identity.HasRole(models.RoleSRC, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only src members can publish announcements")
	}
	item := models.Announcement{ID: "ann-" + req.Title, Title: req.Title, Header: req.Header, PostedByID: identity.ID, Date: time.Now()}
	m.created = append([]models.Announcement{item}, m.created...)
	return &item, nil
}

func (m *announcementServiceMock) List(ctx context.Context, query dto.AnnouncementListQuery) ([]models.Announcement, *models.Pagination, error) {
	return m.created, models.NewPagination(query.Limit, query.Skip, len(m.created)), nil
}

func (m *announcementServiceMock) Get(ctx context.Context, id string) (*models.Announcement, error) {
	for i := range m.created {
		if m.created[i].ID == id {
			return &m.created[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
}

func (m *announcementServiceMock) Headers(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{Slug: "general", Label: "General"}}, nil
}

func (m *announcementServiceMock) CreateCategory(ctx context.Context, identity *models.Identity, req dto.CreateCategoryRequest) (*models.Category, error) {
	return &models.Category{Slug: "exams", Label: req.Label}, nil
}

func (m *announcementServiceMock) ToggleLike(ctx context.Context, identity *models.Identity, id string, req dto.LikeRequest) (*models.Announcement, error) {
	return m.Get(ctx, id)
}

func (m *announcementServiceMock) AddComment(ctx context.Context, identity *models.Identity, id string, req dto.CommentRequest) (*models.Announcement, error) {
	return m.Get(ctx, id)
}

func (m *announcementServiceMock) AddReply(ctx context.Context, identity *models.Identity, id string, req dto.ReplyRequest) (*models.Announcement, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
}

func (m *announcementServiceMock) Update(ctx context.Context, identity *models.Identity, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error) {
	return m.Get(ctx, id)
}

func (m *announcementServiceMock) Delete(ctx context.Context, identity *models.Identity, id string) error {
	return nil
}

type userServiceMock struct{}

func (userServiceMock) Profile(ctx context.Context, identity *models.Identity) (*models.UserInfo, error) {
	return &models.UserInfo{ID: identity.ID, Name: identity.Name, Role: identity.Role}, nil
}

func (userServiceMock) UpdateProfile(ctx context.Context, identity *models.Identity, req dto.UpdateProfileRequest) (*models.UserInfo, error) {
	return &models.UserInfo{ID: identity.ID, Name: req.Name, Email: req.Email}, nil
}

func (userServiceMock) List(ctx context.Context, query dto.UserListQuery) ([]models.UserInfo, *models.Pagination, error) {
	return []models.UserInfo{{ID: "u1"}}, models.NewPagination(query.Limit, query.Skip, 1), nil
}

func (userServiceMock) ChangeRole(ctx context.Context, actor *models.Identity, req dto.ChangeRoleRequest) (*models.UserInfo, error) {
	return &models.UserInfo{ID: req.UserID, Role: models.RoleSRC}, nil
}

type roleListerMock struct{}

func (roleListerMock) List(ctx context.Context) ([]models.Role, error) {
	return []models.Role{{ID: "role-admin", Name: models.RoleAdmin}}, nil
}

func newTestRouter(announcements *announcementServiceMock) *gin.Engine {
	resolver := tokenResolver{
		"student-token": studentIdentity,
		"src-token":     srcIdentity,
		"admin-token":   adminIdentity,
	}
	accounts := &accountServiceMock{list: &dto.AccountListResponse{StatusCounts: models.StatusCounts{}}}
	router := gin.New()
	api := router.Group("/api/v1", middleware.WithResponseMeta())
	RegisterRoutes(api, Handlers{
		Auth:          NewAuthHandler(&authServiceMock{}, CookieConfig{Name: "token"}),
		Users:         NewUserHandler(userServiceMock{}, roleListerMock{}),
		Accounts:      NewAccountHandler(&confirmationServiceMock{resp: &dto.ConfirmAccountResponse{Success: true, Status: "correct"}}, accounts),
		Imports:       NewImportHandler(&importServiceMock{}),
		Exports:       NewExportHandler(&exportServiceMock{}),
		Uploads:       NewUploadHandler(uploadServiceMock{}),
		Announcements: NewAnnouncementHandler(announcements),
	}, resolver, "token")
	return router
}

func doRequest(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterAccessControl(t *testing.T) {
	router := newTestRouter(&announcementServiceMock{})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"confirm needs session", http.MethodPost, "/api/v1/accounts/confirm", "", http.StatusUnauthorized},
		{"confirm with forged token", http.MethodPost, "/api/v1/accounts/confirm", "forged", http.StatusUnauthorized},
		{"confirm as student", http.MethodPost, "/api/v1/accounts/confirm", "student-token", http.StatusOK},
		{"admin list as student", http.MethodGet, "/api/v1/admin/accounts", "student-token", http.StatusForbidden},
		{"admin list as src", http.MethodGet, "/api/v1/admin/accounts", "src-token", http.StatusForbidden},
		{"admin list as admin", http.MethodGet, "/api/v1/admin/accounts", "admin-token", http.StatusOK},
		{"roles as admin", http.MethodGet, "/api/v1/admin/roles", "admin-token", http.StatusOK},
		{"public board", http.MethodGet, "/api/v1/announcements", "", http.StatusOK},
		{"public headers", http.MethodGet, "/api/v1/announcements/headers", "", http.StatusOK},
		{"profile needs session", http.MethodGet, "/api/v1/profile", "", http.StatusUnauthorized},
		{"profile", http.MethodGet, "/api/v1/profile", "student-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, tc.method, tc.path, tc.token, map[string]string{})
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouterConfirmUnauthorizedIsPlainString(t *testing.T) {
	router := newTestRouter(&announcementServiceMock{})

	w := doRequest(router, http.MethodPost, "/api/v1/accounts/confirm", "forged", map[string]string{})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication required", plainError(t, w))
}

func TestRouterCookieSession(t *testing.T) {
	router := newTestRouter(&announcementServiceMock{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "src-token"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), srcIdentity.ID)
}

func TestRouterAnnouncementPermissions(t *testing.T) {
	board := &announcementServiceMock{}
	router := newTestRouter(board)
	post := dto.CreateAnnouncementRequest{Title: "Exams", Content: "Timetable is out", Header: "General"}

	w := doRequest(router, http.MethodPost, "/api/v1/announcements", "student-token", post)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/announcements", "src-token", post)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/announcements", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.Announcement
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &items))
	require.NotEmpty(t, items)
	assert.Equal(t, "Exams", items[0].Title)

	w = doRequest(router, http.MethodPost, "/api/v1/announcements/"+items[0].ID+"/replies", "student-token", dto.ReplyRequest{CommentID: "missing", Text: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
