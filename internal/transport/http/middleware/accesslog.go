package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sensitiveQuery = map[string]struct{}{
	"password": {}, "token": {}, "access_token": {}, "authorization": {}, "secret": {},
}

// quietPaths are probes that would drown the log.
var quietPaths = map[string]struct{}{"/health": {}, "/metrics": {}}

// AccessLog writes one line per request after it completes. 5xx lines go out
// at error level, 4xx at warn. The caller id is included once AuthJWT has run.
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, quiet := quietPaths[path]; quiet {
			return
		}
		status := c.Writer.Status()
		lvl := zapcore.InfoLevel
		switch {
		case status >= 500:
			lvl = zapcore.ErrorLevel
		case status >= 400:
			lvl = zapcore.WarnLevel
		}
		ce := l.Check(lvl, "http")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("uri", maskQuery(c.Request.URL)),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, zap.String("uid", p.ID), zap.String("role", p.Role))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		ce.Write(fields...)
	}
}

func maskQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	q := u.Query()
	for k := range q {
		if _, ok := sensitiveQuery[strings.ToLower(k)]; ok {
			q.Set(k, "****")
		}
	}
	return u.Path + "?" + q.Encode()
}
