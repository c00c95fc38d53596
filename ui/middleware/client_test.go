package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), EnsureClient())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "%s|%s", Client(c), RequestIDFrom(c))
	})
	return r
}

func TestEnsureClient_IssuesCookie(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ClientCookie, cookies[0].Name)
	assert.Contains(t, w.Body.String(), cookies[0].Value+"|")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEnsureClient_ReusesCookie(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: "known-client"})
	req.Header.Set("X-Request-ID", "req-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, "known-client|req-1", w.Body.String())
}
