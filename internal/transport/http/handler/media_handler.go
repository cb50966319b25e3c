package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MediaOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Prefix() string
}

// MediaHandler streams stored images under the public prefix.
type MediaHandler struct {
	store MediaOpener
	log   *zap.Logger
}

func NewMediaHandler(store MediaOpener, l *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, log: l}
}

// Mount registers GET {prefix}/:name on r.
func (h *MediaHandler) Mount(r gin.IRoutes) {
	r.GET(h.store.Prefix()+"/:name", h.Serve)
}

func (h *MediaHandler) Serve(c *gin.Context) {
	name := c.Param("name")
	rc, size, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		h.log.Debug("media not served", zap.String("name", name), zap.Error(err))
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, ct, rc, map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}
