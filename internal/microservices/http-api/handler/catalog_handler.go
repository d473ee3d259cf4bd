package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"susmanga/internal/microservices/http-api/dto"
	"susmanga/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/manga", h.List)
	rg.GET("/search", h.Search)
	rg.GET("/comic/:slug", h.Comic)
	rg.GET("/comic/:slug/read", h.Read)
	rg.GET("/comic/:slug/similar", h.Similar)
	rg.GET("/browse/:type/:slug", h.Browse)
}

// paging reads page and page_size; invalid values fall back to defaults.
func paging(c *gin.Context) (int, int) {
	page, pageSize := 1, service.DefaultPageSize
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= service.MaxPageSize {
			pageSize = parsed
		}
	}
	return page, pageSize
}

func (h *CatalogHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, pageSize := paging(c)
	res, err := h.svc.Latest(ctx, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSummaryPage(res))
}

func (h *CatalogHandler) Search(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	page, pageSize := paging(c)
	res, err := h.svc.Search(ctx, c.Query("q"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSummaryPage(res))
}

func (h *CatalogHandler) Comic(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	detail, err := h.svc.Comic(ctx, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromComicDetail(detail))
}

func (h *CatalogHandler) Read(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := h.svc.Reader(ctx, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReaderView(view))
}

func (h *CatalogHandler) Similar(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.Similar(ctx, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.FromSummaries(list)})
}

func (h *CatalogHandler) Browse(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	category := c.Param("type")
	page, pageSize := paging(c)
	entity, res, err := h.svc.Browse(ctx, category, c.Param("slug"), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromBrowse(category, entity, res))
}
