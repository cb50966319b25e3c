package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "luxauction-api/internal/transport/http/response"
)

const queueWait = 2 * time.Second

// ConcurrencyLimit caps in-flight requests at limit. A request waits at most
// queueWait for a slot before it is turned away.
func ConcurrencyLimit(limit int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), queueWait)
		err := sem.Acquire(ctx, 1)
		cancel()
		if err != nil {
			resp.Abort(c, resp.CodeTooManyRequests, "server busy")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
