package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxauction-api/internal/domain"
	"luxauction-api/internal/service"
	httpez "luxauction-api/internal/transport/http/ez"
	mdw "luxauction-api/internal/transport/http/middleware"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
}

type AuthHandler struct {
	svc   AuthService
	authn gin.HandlerFunc
	log   *zap.Logger
}

func NewAuthHandler(svc AuthService, authn gin.HandlerFunc, l *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, authn: authn, log: l}
}

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	pub := httpez.New(api.Group("/auth"), h.log)
	httpez.RegisterAction(pub, httpez.Action[service.RegisterInput, *domain.User]{
		Method: http.MethodPost, Path: "/register", Binder: httpez.BindJSON, Handler: h.register,
	})
	httpez.RegisterAction(pub, httpez.Action[service.LoginInput, *service.LoginResult]{
		Method: http.MethodPost, Path: "/login", Binder: httpez.BindJSON, Handler: h.login,
	})

	authed := httpez.New(api.Group("", h.authn), h.log)
	httpez.RegisterAction(authed, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/me", Binder: httpez.BindNone, Auth: true, Handler: h.me,
	})
}

func (h *AuthHandler) register(c *gin.Context, in *service.RegisterInput) (*domain.User, error) {
	return h.svc.Register(c.Request.Context(), *in)
}

func (h *AuthHandler) login(c *gin.Context, in *service.LoginInput) (*service.LoginResult, error) {
	res, err := h.svc.Login(c.Request.Context(), *in)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return nil, httpez.Unauthorized(err.Error())
	}
	return res, err
}

func (h *AuthHandler) me(c *gin.Context, _ *struct{}) (*domain.User, error) {
	p, _ := mdw.PrincipalFrom(c)
	u, err := h.svc.Me(c.Request.Context(), p)
	if errors.Is(err, service.ErrUserNotFound) {
		return nil, httpez.NotFound(err.Error())
	}
	return u, err
}
