package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "luxauction-api/internal/transport/http/response"
)

// MaxBodyBytes caps the request body at n bytes. A declared Content-Length
// over the cap is refused before the handler runs; a body that turns out
// larger fails on read and is answered here if the handler wrote nothing.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodeBadRequest, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, e := range c.Errors {
			var mbe *http.MaxBytesError
			if errors.As(e.Err, &mbe) {
				resp.Abort(c, resp.CodeBadRequest, "request body too large")
				return
			}
		}
	}
}
