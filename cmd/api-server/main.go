package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"susmanga/database"
	"susmanga/internal/cache"
	"susmanga/internal/config"
	"susmanga/internal/ingestion/gallery"
	"susmanga/internal/microservices/http-api/handler"
	"susmanga/internal/microservices/http-api/middleware"
	"susmanga/internal/microservices/http-api/repository"
	"susmanga/internal/microservices/http-api/service"
	"susmanga/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// 2. Connect to the database (applies migrations)
	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// 3. Optional collaborators: cache and object storage
	var viewCache service.Cache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPassword, cfg.CacheDuration())
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", "error", err)
	} else {
		viewCache = redisCache
		defer redisCache.Close()
	}

	var rehoster service.ImageRehoster
	if cfg.StorageEnabled() {
		uploader, err := storage.NewR2Uploader(storage.R2Config{
			Endpoint:        cfg.R2Endpoint,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2Bucket,
			PublicBaseURL:   cfg.CDNBaseURL,
		})
		if err != nil {
			logger.Error("object storage misconfigured", "error", err)
			os.Exit(1)
		}
		rehoster = storage.NewRehoster(uploader, storage.RehostOptions{
			Workers:   cfg.UploadWorkers,
			MaxSize:   cfg.UploadMaxSize,
			UserAgent: cfg.SourceUserAgent,
			Logger:    logger,
		})
	} else {
		logger.Warn("R2 not configured, uploads keep their source URLs")
	}

	blacklist, err := config.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		logger.Error("could not load blacklist", "error", err)
		os.Exit(1)
	}

	// 4. Wire services
	source := gallery.NewClient(gallery.Options{
		BaseURL:   cfg.SourceBaseURL,
		UserAgent: cfg.SourceUserAgent,
		RateLimit: cfg.SourceRateLimit,
		Workers:   cfg.ScrapeWorkers,
		Logger:    logger,
	})

	catalogSvc := service.NewCatalogService(repository.NewCatalogRepo(db), viewCache, logger)
	ingestSvc := service.NewIngestService(repository.NewContentRepo(db), service.IngestOptions{
		Rollback:         cfg.IngestRollback,
		DefaultBlacklist: blacklist,
		Cache:            catalogSvc,
		Logger:           logger,
	})
	migrationSvc := service.NewMigrationService(source, rehoster, ingestSvc, logger)
	authSvc := service.NewAuthService(cfg.JWTSecret)
	loginSvc := service.NewLoginService(authSvc, cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminTokenDuration())
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	// 5. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	handler.NewAuthHandler(loginSvc).RegisterRoutes(api)
	handler.NewCatalogHandler(catalogSvc).RegisterRoutes(api)
	handler.NewIngestHandler(ingestSvc, migrationSvc, cfg.UploadMaxSize, logger).RegisterRoutes(api, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server running", "addr", srv.Addr, "env", cfg.GoEnv, "storage", cfg.StorageEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
