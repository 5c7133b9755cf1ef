package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(allowed []string, method, origin string, preflight bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOriginIsEchoed(t *testing.T) {
	w := serve([]string{"https://portal.example.edu/"}, http.MethodGet, "https://portal.example.edu", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUnknownOriginGetsNoCORSHeaders(t *testing.T) {
	w := serve([]string{"https://portal.example.edu"}, http.MethodGet, "https://evil.example.com", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflight(t *testing.T) {
	w := serve([]string{"https://portal.example.edu"}, http.MethodOptions, "https://portal.example.edu", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve([]string{"https://portal.example.edu"}, http.MethodOptions, "https://evil.example.com", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEmptyListAllowsAnyOriginWithoutWildcard(t *testing.T) {
	w := serve(nil, http.MethodGet, "http://localhost:3000", false)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(nil, http.MethodGet, "", false)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
