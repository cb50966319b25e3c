package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"luxauction-api/internal/core/auth"
	"luxauction-api/internal/domain"
	resp "luxauction-api/internal/transport/http/response"
)

const keyPrincipal = "principal"

// AuthJWT verifies the bearer token and stores the caller's Principal.
// A non-empty requireRole rejects every other role.
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		p := claims.Principal()
		if requireRole != "" && !p.HasRole(requireRole) {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set(keyPrincipal, p)
		c.Next()
	}
}

// RequireRole lets through callers holding one of roles. It must run after AuthJWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
			return
		}
		if !slices.Contains(roles, p.Role) {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(keyPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}
