package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"susmanga/database"
	"susmanga/internal/cache"
	"susmanga/internal/config"
	"susmanga/internal/ingestion/gallery"
	"susmanga/internal/middleware/auth"
	"susmanga/internal/microservices/http-api/repository"
	"susmanga/internal/microservices/http-api/service"
	"susmanga/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	blacklist []string
	deleteIDs bool
)

var rootCmd = &cobra.Command{
	Use:   "gallery-migrate [ids...]",
	Short: "Ingest galleries into the catalog",
	Long: `gallery-migrate scrapes each gallery id from the source and publishes it,
the same way POST /api/migrate does. With --delete the arguments are manga
uuids to remove instead.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

// hashPasswordCmd prints the bcrypt hash for ADMIN_PASSWORD_HASH.
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.Flags().StringSliceVar(&blacklist, "blacklist", nil, "labels that reject a gallery (comma separated)")
	rootCmd.Flags().BoolVar(&deleteIDs, "delete", false, "treat arguments as manga ids to delete")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	defaults, err := config.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		return err
	}

	// Deletes drop the API server's cached views when redis is reachable.
	var viewCache service.Cache
	if redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPassword, cfg.CacheDuration()); err != nil {
		logger.Warn("redis unavailable, cached views expire on TTL", "error", err)
	} else {
		viewCache = redisCache
		defer redisCache.Close()
	}
	catalog := service.NewCatalogService(repository.NewCatalogRepo(db), viewCache, logger)

	ingest := service.NewIngestService(repository.NewContentRepo(db), service.IngestOptions{
		Rollback:         cfg.IngestRollback,
		DefaultBlacklist: defaults,
		Cache:            catalog,
		Logger:           logger,
	})

	if deleteIDs {
		return deleteAll(ctx, ingest, args, logger)
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
			return err
		}
		rehoster = storage.NewRehoster(uploader, storage.RehostOptions{
			Workers:   cfg.UploadWorkers,
			MaxSize:   cfg.UploadMaxSize,
			UserAgent: cfg.SourceUserAgent,
			Logger:    logger,
		})
	}

	source := gallery.NewClient(gallery.Options{
		BaseURL:   cfg.SourceBaseURL,
		UserAgent: cfg.SourceUserAgent,
		RateLimit: cfg.SourceRateLimit,
		Workers:   cfg.ScrapeWorkers,
		Logger:    logger,
	})
	migration := service.NewMigrationService(source, rehoster, ingest, logger)

	failed := 0
	for _, id := range args {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := migration.Migrate(ctx, id, blacklist)
		if err != nil {
			failed++
			logger.Error("migrate failed", "gallery", id, "error", err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d pages)\n", id, res.ID, res.Pages)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d galleries failed", failed, len(args))
	}
	return nil
}

func deleteAll(ctx context.Context, ingest service.IngestService, args []string, logger *slog.Logger) error {
	failed := 0
	for _, raw := range args {
		id, err := uuid.Parse(raw)
		if err != nil {
			failed++
			logger.Error("invalid manga id", "id", raw)
			continue
		}
		if err := ingest.Delete(ctx, id); err != nil {
			failed++
			logger.Error("delete failed", "manga_id", id, "error", err)
			continue
		}
		logger.Info("deleted", "manga_id", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletes failed", failed, len(args))
	}
	return nil
}
