package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxauction-api/internal/core/auth"
	"luxauction-api/internal/domain"
	mdw "luxauction-api/internal/transport/http/middleware"
)

func NewAdminEngine(l *zap.Logger, o Options, ping func() error, jwter *auth.JWTer, mods *Registry) *gin.Engine {
	r := newEngine(l, o, ping)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(jwter, domain.RoleAdmin))

	mods.MountAdmin(admin)
	return r
}
