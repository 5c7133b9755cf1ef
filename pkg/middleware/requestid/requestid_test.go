package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		if Value(c) == FromContext(c.Request.Context()) {
			*seen = Value(c)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestMiddlewareGeneratesID(t *testing.T) {
	var seen string
	w := httptest.NewRecorder()
	newRouter(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(headerKey)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "edge-1234")
	w := httptest.NewRecorder()

	newRouter(&seen).ServeHTTP(w, req)

	assert.Equal(t, "edge-1234", w.Header().Get(headerKey))
	assert.Equal(t, "edge-1234", seen)
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", maxLength+1))
	w := httptest.NewRecorder()

	newRouter(&seen).ServeHTTP(w, req)

	assert.Len(t, seen, 36)
}

func TestFromContextEmpty(t *testing.T) {
	assert.Empty(t, FromContext(nil)) //nolint:staticcheck
}
