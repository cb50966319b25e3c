package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxauction-api/internal/domain"
	"luxauction-api/internal/feature/listing"
	httpez "luxauction-api/internal/transport/http/ez"
	mdw "luxauction-api/internal/transport/http/middleware"
)

type ListingService interface {
	CreateListing(ctx context.Context, sellerID string, sub listing.Submission) (*listing.Detail, error)
	DeleteListing(ctx context.Context, id uint, sellerID string) error
	ListSellerListings(ctx context.Context, sellerID string) ([]listing.Display, error)
	QueryActiveListings(ctx context.Context, q domain.Query) ([]listing.Display, error)
	FeaturedListings(ctx context.Context, count int) ([]listing.Display, error)
	GetListing(ctx context.Context, id uint) (*listing.Detail, error)
}

// ListingHandler mounts the /listings routes. Seller-only routes go through authn first.
type ListingHandler struct {
	svc   ListingService
	authn gin.HandlerFunc
	log   *zap.Logger
}

func NewListingHandler(svc ListingService, authn gin.HandlerFunc, l *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, authn: authn, log: l}
}

func (h *ListingHandler) Priority() int { return 20 }

type idParam struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type featuredQuery struct {
	Count int `form:"count"`
}

type deleted struct {
	ID uint `json:"id"`
}

func (h *ListingHandler) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/listings")

	// static paths are registered before /:id
	seller := g.Group("", h.authn, mdw.RequireRole(domain.RoleSeller))
	es := httpez.New(seller, h.log)
	httpez.RegisterAction(es, httpez.Action[struct{}, *listing.Detail]{
		Method: http.MethodPost, Path: "", Binder: httpez.BindNone, Handler: h.create,
	})
	httpez.RegisterAction(es, httpez.Action[struct{}, []listing.Display]{
		Method: http.MethodGet, Path: "/mine", Binder: httpez.BindNone, Handler: h.mine,
	})
	httpez.RegisterAction(es, httpez.Action[idParam, deleted]{
		Method: http.MethodDelete, Path: "/:id", Binder: httpez.BindURI, Handler: h.remove,
	})

	pub := httpez.New(g, h.log)
	httpez.RegisterAction(pub, httpez.Action[domain.Query, []listing.Display]{
		Method: http.MethodGet, Path: "/active", Binder: httpez.BindQuery, Handler: h.active,
	})
	httpez.RegisterAction(pub, httpez.Action[featuredQuery, []listing.Display]{
		Method: http.MethodGet, Path: "/featured", Binder: httpez.BindQuery, Handler: h.featured,
	})
	httpez.RegisterAction(pub, httpez.Action[idParam, *listing.Detail]{
		Method: http.MethodGet, Path: "/:id", Binder: httpez.BindURI, Handler: h.get,
	})
}

func (h *ListingHandler) create(c *gin.Context, _ *struct{}) (*listing.Detail, error) {
	p, _ := mdw.PrincipalFrom(c)
	sub, err := submissionFrom(c)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateListing(c.Request.Context(), p.ID, sub)
}

func (h *ListingHandler) mine(c *gin.Context, _ *struct{}) ([]listing.Display, error) {
	p, _ := mdw.PrincipalFrom(c)
	return h.svc.ListSellerListings(c.Request.Context(), p.ID)
}

func (h *ListingHandler) remove(c *gin.Context, in *idParam) (deleted, error) {
	p, _ := mdw.PrincipalFrom(c)
	if err := h.svc.DeleteListing(c.Request.Context(), in.ID, p.ID); err != nil {
		return deleted{}, err
	}
	return deleted{ID: in.ID}, nil
}

func (h *ListingHandler) active(c *gin.Context, in *domain.Query) ([]listing.Display, error) {
	return h.svc.QueryActiveListings(c.Request.Context(), *in)
}

func (h *ListingHandler) featured(c *gin.Context, in *featuredQuery) ([]listing.Display, error) {
	return h.svc.FeaturedListings(c.Request.Context(), in.Count)
}

func (h *ListingHandler) get(c *gin.Context, in *idParam) (*listing.Detail, error) {
	return h.svc.GetListing(c.Request.Context(), in.ID)
}

// submissionFrom reads a multipart or urlencoded create form. Values are passed on
// untouched; validation belongs to the service.
func submissionFrom(c *gin.Context) (listing.Submission, error) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return listing.Submission{}, httpez.BadRequest("invalid multipart form")
	}
	sub := listing.Submission{
		Title:           c.PostForm("title"),
		Category:        c.PostForm("category"),
		Description:     c.PostForm("description"),
		StartingBid:     c.PostForm("startingBid"),
		ReservePrice:    c.PostForm("reservePrice"),
		AuctionDuration: c.PostForm("auctionDuration"),
		Materials:       c.PostFormArray("materials"),
		Era:             c.PostForm("era"),
		Condition:       c.PostForm("condition"),
		Weight:          c.PostForm("weight"),
		Dimensions:      c.PostForm("dimensions"),
		Certificates:    c.PostForm("certificates"),
		ShippingInfo:    c.PostForm("shippingInfo"),
	}
	if form != nil {
		for _, fh := range form.File["images"] {
			sub.Images = append(sub.Images, uploadFrom(fh))
		}
	}
	return sub, nil
}

func uploadFrom(fh *multipart.FileHeader) listing.Upload {
	return listing.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
