package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"susmanga/internal/ingestion/gallery"
	"susmanga/internal/microservices/http-api/models"
)

// GallerySource scrapes a gallery and its page images.
type GallerySource interface {
	FetchGallery(ctx context.Context, id string) (*gallery.Gallery, error)
	FetchPageImages(ctx context.Context, id string, total int) ([]string, error)
}

// ImageRehoster copies images into object storage.
type ImageRehoster interface {
	RehostURL(ctx context.Context, remoteURL string) (string, error)
	RehostFeature(ctx context.Context, slug, remoteURL string) (string, error)
	RehostPages(ctx context.Context, slug string, urls []string) ([]string, error)
	Upload(ctx context.Context, filename string, body []byte, contentType string) (string, error)
}

// UploadRequest is a manual upload. Label fields are raw comma-separated
// strings keyed by category.
type UploadRequest struct {
	ExternalID      *string
	Title           string
	FeatureImageURL *string
	PageURLs        []string
	Labels          map[string]string
}

type MigrationService interface {
	Migrate(ctx context.Context, externalID string, blacklist []string) (*IngestResult, error)
	Preview(ctx context.Context, externalID string) (*gallery.Gallery, error)
	Upload(ctx context.Context, req UploadRequest) (*IngestResult, error)
	RehostURL(ctx context.Context, remoteURL string) (string, error)
	UploadFile(ctx context.Context, filename string, body []byte, contentType string) (string, error)
}

type migrationService struct {
	source   GallerySource
	rehoster ImageRehoster
	ingest   IngestService
	logger   *slog.Logger
}

// NewMigrationService wires the ingestion entry points. rehoster may be nil,
// in which case uploads keep their original image URLs.
func NewMigrationService(source GallerySource, rehoster ImageRehoster, ingest IngestService, logger *slog.Logger) MigrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationService{source: source, rehoster: rehoster, ingest: ingest, logger: logger}
}

func parseExternalID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: invalid gallery id %q", ErrValidation, raw)
	}
	return strconv.FormatUint(n, 10), nil
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

func (s *migrationService) Preview(ctx context.Context, externalID string) (*gallery.Gallery, error) {
	id, err := parseExternalID(externalID)
	if err != nil {
		return nil, err
	}
	g, err := s.source.FetchGallery(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	return g, nil
}

// Migrate scrapes gallery id and publishes it under slug = id with the
// source image URLs.
func (s *migrationService) Migrate(ctx context.Context, externalID string, blacklist []string) (*IngestResult, error) {
	id, err := parseExternalID(externalID)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("gallery", id)

	g, err := s.source.FetchGallery(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if strings.TrimSpace(g.Title) == "" {
		return nil, upstream(fmt.Errorf("gallery %s has no title", id))
	}
	logger.Info("scraped gallery", "title", g.Title, "pages", g.TotalPages)

	pages, err := s.source.FetchPageImages(ctx, id, g.TotalPages)
	if err != nil {
		return nil, upstream(err)
	}

	labels := map[string][]string{}
	for key, names := range g.Labels {
		if _, ok := models.CategoryByKey(key); ok {
			labels[key] = names
		}
	}

	feature := g.FeatureImageURL
	return s.ingest.Ingest(ctx, IngestRequest{
		Title:           g.Title,
		Slug:            id,
		FeatureImageURL: &feature,
		ExternalID:      &id,
		PageURLs:        pages,
		Labels:          labels,
		Blacklist:       blacklist,
	})
}

// Upload re-hosts the images under the title's slug, then publishes.
func (s *migrationService) Upload(ctx context.Context, req UploadRequest) (*IngestResult, error) {
	ingestReq := IngestRequest{
		Title:      req.Title,
		ExternalID: blankToNil(req.ExternalID),
		PageURLs:   req.PageURLs,
		Labels:     map[string][]string{},
	}
	for key, raw := range req.Labels {
		if _, ok := models.CategoryByKey(key); !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, key)
		}
		ingestReq.Labels[key] = SplitLabels(raw)
	}
	// reject bad input before any image is copied
	if err := ingestReq.validate(); err != nil {
		return nil, err
	}
	slug := Slugify(req.Title)
	ingestReq.Slug = slug
	ingestReq.FeatureImageURL = blankToNil(req.FeatureImageURL)

	if s.rehoster == nil {
		s.logger.Warn("object storage not configured, keeping source image urls", "slug", slug)
		return s.ingest.Ingest(ctx, ingestReq)
	}

	if ingestReq.FeatureImageURL != nil {
		stored, err := s.rehoster.RehostFeature(ctx, slug, *ingestReq.FeatureImageURL)
		if err != nil {
			return nil, upstream(fmt.Errorf("feature image: %w", err))
		}
		ingestReq.FeatureImageURL = &stored
	}

	pages, err := s.rehoster.RehostPages(ctx, slug, req.PageURLs)
	if err != nil {
		return nil, upstream(err)
	}
	ingestReq.PageURLs = pages

	return s.ingest.Ingest(ctx, ingestReq)
}

func (s *migrationService) RehostURL(ctx context.Context, remoteURL string) (string, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	if !strings.HasPrefix(remoteURL, "http://") && !strings.HasPrefix(remoteURL, "https://") {
		return "", fmt.Errorf("%w: url must be http(s)", ErrValidation)
	}
	if s.rehoster == nil {
		return "", fmt.Errorf("%w: object storage not configured", ErrUpstream)
	}
	stored, err := s.rehoster.RehostURL(ctx, remoteURL)
	if err != nil {
		return "", upstream(err)
	}
	return stored, nil
}

func (s *migrationService) UploadFile(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if s.rehoster == nil {
		return "", fmt.Errorf("%w: object storage not configured", ErrUpstream)
	}
	stored, err := s.rehoster.Upload(ctx, filename, body, contentType)
	if err != nil {
		return "", upstream(err)
	}
	return stored, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
