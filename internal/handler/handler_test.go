package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withIdentity(c *gin.Context, identity *models.Identity) {
	c.Set(middleware.ContextIdentityKey, identity)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type tokenResolver map[string]*models.Identity

func (r tokenResolver) Resolve(_ context.Context, token string) *models.Identity {
	return r[token]
}

var (
	studentIdentity = &models.Identity{ID: "u-student", Name: "Ama Kofi Mensah", Role: models.RoleStudent}
	srcIdentity     = &models.Identity{ID: "u-src", Name: "Kwesi Boateng", Role: models.RoleSRC}
	adminIdentity   = &models.Identity{ID: "u-admin", Name: "Efua Asante", Role: models.RoleAdmin}
)

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
