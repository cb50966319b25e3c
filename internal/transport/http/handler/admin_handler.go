package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"luxauction-api/internal/core/media"
	"luxauction-api/internal/domain"
	"luxauction-api/internal/service"
)

type UserLister interface {
	List(ctx context.Context, page, size int, q string) (*service.Page[domain.User], error)
}

type OrphanSweeper interface {
	Find(ctx context.Context) ([]media.Object, int, error)
	Sweep(ctx context.Context) (*service.SweepReport, error)
}

type AdminHandler struct {
	users   UserLister
	sweeper OrphanSweeper
}

func NewAdminHandler(users UserLister, sweeper OrphanSweeper) *AdminHandler {
	return &AdminHandler{users: users, sweeper: sweeper}
}

type UsersQuery struct {
	Page int    `form:"page,default=1"`
	Size int    `form:"size,default=20"`
	Q    string `form:"q"`
}

type OrphanReport struct {
	Scanned int            `json:"scanned"`
	Orphans []media.Object `json:"orphans"`
}

func (h *AdminHandler) Users(c *gin.Context, in *UsersQuery) (*service.Page[domain.User], error) {
	return h.users.List(c.Request.Context(), in.Page, in.Size, in.Q)
}

func (h *AdminHandler) Orphans(c *gin.Context, _ *struct{}) (OrphanReport, error) {
	objs, scanned, err := h.sweeper.Find(c.Request.Context())
	if err != nil {
		return OrphanReport{}, err
	}
	if objs == nil {
		objs = []media.Object{}
	}
	return OrphanReport{Scanned: scanned, Orphans: objs}, nil
}

func (h *AdminHandler) Sweep(c *gin.Context, _ *struct{}) (*service.SweepReport, error) {
	return h.sweeper.Sweep(c.Request.Context())
}
