package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"luxauction-api/internal/core/server"
	"luxauction-api/internal/transport/http/handler"
	mdw "luxauction-api/internal/transport/http/middleware"
)

// Options tune the shared middleware chain of both engines.
type Options struct {
	CORSOrigins    []string
	HandlerTimeout time.Duration
	MaxBodyBytes   int64
	RPS            float64
	Burst          int
	MaxInFlight    int64
}

func (o Options) withDefaults() Options {
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = 10 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 16 << 20
	}
	if o.RPS <= 0 {
		o.RPS = 200
	}
	if o.Burst <= 0 {
		o.Burst = 400
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 300
	}
	return o
}

func newEngine(l *zap.Logger, o Options, ping func() error) *gin.Engine {
	o = o.withDefaults()
	r := server.NewRouter(l, o.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(o.RPS), o.Burst, 10*time.Minute),
		mdw.ConcurrencyLimit(o.MaxInFlight),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.HandlerTimeout),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "db": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewAPIEngine serves /api/v1 from the registered modules plus the media files.
func NewAPIEngine(l *zap.Logger, o Options, ping func() error, files *handler.MediaHandler, mods *Registry) *gin.Engine {
	r := newEngine(l, o, ping)
	if files != nil {
		files.Mount(r)
	}
	mods.MountAPI(r.Group("/api/v1"))
	return r
}
