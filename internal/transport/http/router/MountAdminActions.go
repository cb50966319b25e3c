package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxauction-api/internal/domain"
	"luxauction-api/internal/service"
	httpez "luxauction-api/internal/transport/http/ez"
	"luxauction-api/internal/transport/http/handler"
)

// AdminActions adapts the admin handler to the Registry.
type AdminActions struct {
	H   *handler.AdminHandler
	Log *zap.Logger
}

func (a AdminActions) MountAdmin(g *gin.RouterGroup) { MountAdminActions(g, a.H, a.Log) }

// MountAdminActions registers the account and media maintenance endpoints.
// The group already requires the Admin role.
func MountAdminActions(admin *gin.RouterGroup, h *handler.AdminHandler, l *zap.Logger) {
	ez := httpez.New(admin, l)

	httpez.RegisterAction(ez, httpez.Action[handler.UsersQuery, *service.Page[domain.User]]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  httpez.BindQuery,
		Handler: h.Users,
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, handler.OrphanReport]{
		Method:  http.MethodGet,
		Path:    "/media/orphans",
		Binder:  httpez.BindNone,
		Handler: h.Orphans,
	})

	// deletes what /media/orphans reports at the time of the call
	httpez.RegisterAction(ez, httpez.Action[struct{}, *service.SweepReport]{
		Method:  http.MethodPost,
		Path:    "/media/sweep",
		Binder:  httpez.BindNone,
		Handler: h.Sweep,
	})
}
