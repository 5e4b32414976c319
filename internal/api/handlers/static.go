package handlers

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/Ayash-Bera/docchat/web"
	"github.com/gin-gonic/gin"
)

type StaticHandler struct {
	index  []byte
	assets fs.FS
}

func NewStaticHandler() (*StaticHandler, error) {
	index, err := web.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index page: %w", err)
	}
	assets, err := web.Assets()
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}
	return &StaticHandler{index: index, assets: assets}, nil
}

// Index serves the page bytes directly; http.FileServer would redirect
// index.html requests to the directory.
func (h *StaticHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.index)
}

func (h *StaticHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)
	r.StaticFS("/static", http.FS(h.assets))
}
