package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"susmanga/internal/microservices/http-api/dto"
	"susmanga/internal/microservices/http-api/middleware"
	"susmanga/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ingestTimeout bounds a whole scrape + publish. Galleries run to hundreds
// of pages.
const ingestTimeout = 10 * time.Minute

type IngestHandler struct {
	ingest    service.IngestService
	migration service.MigrationService
	maxUpload int64
	logger    *slog.Logger
}

func NewIngestHandler(ingest service.IngestService, migration service.MigrationService, maxUpload int64, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{ingest: ingest, migration: migration, maxUpload: maxUpload, logger: logger}
}

// RegisterRoutes mounts the write endpoints. Every route requires an admin token.
func (h *IngestHandler) RegisterRoutes(rg *gin.RouterGroup, auth service.AuthService) {
	admin := rg.Group("", middleware.AuthMiddleware(auth), middleware.RequireAdmin())

	admin.POST("/migrate", h.Migrate)
	admin.DELETE("/migrate", h.Delete)
	admin.POST("/newupload", h.NewUpload)
	admin.POST("/r2-upload-url", h.UploadURL)
	admin.POST("/r2-upload", h.UploadFile)
	admin.GET("/testfull", h.Preview)
}

func (h *IngestHandler) Migrate(c *gin.Context) {
	var req dto.MigrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	res, err := h.migration.Migrate(ctx, req.ID.String(), req.BlacklistTags)
	if err != nil {
		h.logger.Error("migrate failed", "gallery", req.ID.String(), "error", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngestResult(res))
}

func (h *IngestHandler) Delete(c *gin.Context) {
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		badRequest(c, "invalid manga id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.ingest.Delete(ctx, id); err != nil {
		h.logger.Error("delete failed", "manga_id", id, "error", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true})
}

func (h *IngestHandler) NewUpload(c *gin.Context) {
	var req dto.NewUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	res, err := h.migration.Upload(ctx, req.ToUploadRequest())
	if err != nil {
		h.logger.Error("upload failed", "title", req.Title, "error", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngestResult(res))
}

func (h *IngestHandler) UploadURL(c *gin.Context) {
	var req dto.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	stored, err := h.migration.RehostURL(ctx, req.URL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UploadURLResponse{URL: stored})
}

func (h *IngestHandler) UploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, dto.StatusResponse{Success: false, Message: "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	stored, err := h.migration.UploadFile(ctx, fh.Filename, body, fh.Header.Get("Content-Type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UploadURLResponse{URL: stored})
}

func (h *IngestHandler) Preview(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		badRequest(c, "Missing id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	g, err := h.migration.Preview(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromGallery(g))
}
