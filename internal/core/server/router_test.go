package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCORSConfig(t *testing.T) {
	open := CORSConfig(nil)
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)
	assert.Contains(t, open.AllowHeaders, "Authorization")

	scoped := CORSConfig([]string{"https://shop.example.com"})
	assert.False(t, scoped.AllowAllOrigins)
	assert.Equal(t, []string{"https://shop.example.com"}, scoped.AllowOrigins)
	assert.NoError(t, scoped.Validate())
}

func TestNewRouter_PreflightFromAllowedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(zap.NewNop(), []string{"https://shop.example.com"})
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildServer(t *testing.T) {
	srv := BuildServer(Addr("0.0.0.0", 8080), http.NotFoundHandler(), 5*time.Second, 10*time.Second, time.Minute)
	assert.Equal(t, "0.0.0.0:8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
}
