package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"luxauction-api/internal/core/auth"
	"luxauction-api/internal/domain"
	resp "luxauction-api/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func doGet(r http.Handler, path string, hdr map[string]string) (int, resp.Resp, http.Header) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	req.RemoteAddr = "10.0.0.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body, w.Header()
}

func TestAuthJWTAndRequireRole(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("middleware-secret-123"), Issuer: "test", TTL: time.Hour}
	seller, _ := j.Issue("42", domain.RoleSeller, "Ada")
	buyer, _ := j.Issue("43", domain.RoleBuyer, "Bo")

	r := gin.New()
	r.GET("/seller", AuthJWT(j, ""), RequireRole(domain.RoleSeller), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, resp.OK(gin.H{"id": p.ID}))
	})

	_, body, _ := doGet(r, "/seller", nil)
	assert.Equal(t, resp.CodeUnauthorized, body.Code)

	_, body, _ = doGet(r, "/seller", map[string]string{"Authorization": "Bearer nonsense"})
	assert.Equal(t, resp.CodeUnauthorized, body.Code)

	_, body, _ = doGet(r, "/seller", map[string]string{"Authorization": "Bearer " + buyer})
	assert.Equal(t, resp.CodeForbidden, body.Code)

	code, body, _ := doGet(r, "/seller", map[string]string{"Authorization": "Bearer " + seller})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, resp.CodeOK, body.Code)
	assert.Equal(t, map[string]any{"id": "42"}, body.Data)

	r.GET("/admin-only", AuthJWT(j, domain.RoleAdmin), func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })
	_, body, _ = doGet(r, "/admin-only", map[string]string{"Authorization": "Bearer " + seller})
	assert.Equal(t, resp.CodeForbidden, body.Code)
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(domain.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	_, body, _ := doGet(r, "/x", nil)
	assert.Equal(t, resp.CodeUnauthorized, body.Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(rate.Every(time.Hour), 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.JSON(http.StatusOK, resp.OK(nil)) })

	for i := 0; i < 2; i++ {
		_, body, _ := doGet(r, "/x", nil)
		assert.Equal(t, resp.CodeOK, body.Code)
	}
	_, body, _ := doGet(r, "/x", nil)
	assert.Equal(t, resp.CodeTooManyRequests, body.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	code, body, _ := doGet(r, "/panic", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, resp.CodeServerError, body.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	_, _, hdr := doGet(r, "/x", nil)
	assert.Len(t, hdr.Get(KeyRequestID), 36)

	_, _, hdr = doGet(r, "/x", map[string]string{KeyRequestID: "abc"})
	assert.Equal(t, "abc", hdr.Get(KeyRequestID))

	_, _, hdr = doGet(r, "/x", map[string]string{KeyRequestID: "bad id\nforged=1"})
	assert.Len(t, hdr.Get(KeyRequestID), 36)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	doGet(r, "/health", nil)
	doGet(r, "/ok?token=abc&q=ring", nil)
	doGet(r, "/fail", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	uri := entries[0].ContextMap()["uri"].(string)
	assert.Contains(t, uri, "q=ring")
	assert.NotContains(t, uri, "abc")
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestMaxBodyBytes_DeclaredLength(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) { c.String(http.StatusOK, "reached") })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "request body too large")
	assert.NotContains(t, w.Body.String(), "reached")
}

func TestConcurrencyLimit_Busy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.String(http.StatusOK, "done")
	})
	r.GET("/fast", func(c *gin.Context) { c.String(http.StatusOK, "fast") })

	done := make(chan struct{})
	go func() {
		defer close(done)
		doGet(r, "/slow", nil)
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/fast", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "server busy")

	close(release)
	<-done
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/wait", func(c *gin.Context) { <-c.Request.Context().Done() })

	_, body, _ := doGet(r, "/wait", nil)
	assert.Equal(t, resp.CodeTimeout, body.Code)
}
