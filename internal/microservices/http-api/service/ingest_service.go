package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"susmanga/internal/microservices/http-api/models"
	"susmanga/internal/microservices/http-api/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IngestRequest is one manga to publish. Labels maps a category key
// ("tags", "artists", ...) to label names that are not yet normalised.
type IngestRequest struct {
	Title           string
	Slug            string // optional, Slugify(Title) when empty
	FeatureImageURL *string
	ExternalID      *string
	PageURLs        []string
	Labels          map[string][]string
	Blacklist       []string
}

func (r IngestRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(r.PageURLs) == 0 {
		return fmt.Errorf("%w: at least one page url is required", ErrValidation)
	}
	for i, u := range r.PageURLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: page %d has an empty url", ErrValidation, i+1)
		}
	}
	for key := range r.Labels {
		if _, ok := models.CategoryByKey(key); !ok {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, key)
		}
	}
	return nil
}

// IngestResult describes a published manga.
type IngestResult struct {
	ID    uuid.UUID      `json:"id"`
	Slug  string         `json:"slug"`
	Pages int            `json:"pages"`
	Links map[string]int `json:"links"`
	Log   []string       `json:"log"`

	mu sync.Mutex
}

func (r *IngestResult) logf(logger *slog.Logger, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.Log = append(r.Log, line)
	r.mu.Unlock()
	logger.Info(line)
}

type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Invalidator drops cached views of the given slugs.
type Invalidator interface {
	Invalidate(ctx context.Context, slugs ...string) error
}

type IngestOptions struct {
	// Rollback undoes completed steps when a later step fails.
	Rollback         bool
	DefaultBlacklist []string
	Cache            Invalidator
	Logger           *slog.Logger
}

type ingestService struct {
	store    repository.ContentStore
	resolver *EntityResolver
	links    *LinkWriter
	cache    Invalidator
	logger   *slog.Logger

	rollback         bool
	defaultBlacklist []string

	now   func() time.Time
	newID func() uuid.UUID
}

func NewIngestService(store repository.ContentStore, opts IngestOptions) IngestService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		store:            store,
		resolver:         NewEntityResolver(store),
		links:            NewLinkWriter(store),
		cache:            opts.Cache,
		logger:           logger,
		rollback:         opts.Rollback,
		defaultBlacklist: opts.DefaultBlacklist,
		now:              time.Now,
		newID:            uuid.New,
	}
}

// Ingest writes the record, its slug, its pages and its label links in that
// order. Any failure aborts the remaining steps.
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	blacklist := NewBlacklist(s.defaultBlacklist, req.Blacklist)

	manga := &models.Manga{
		ID:              s.newID(),
		ExternalID:      req.ExternalID,
		Title:           title,
		FeatureImageURL: req.FeatureImageURL,
		CreatedAt:       s.now().UTC(),
	}
	res := &IngestResult{ID: manga.ID, Slug: slug, Links: map[string]int{}}
	logger := s.logger.With("manga_id", manga.ID, "slug", slug)

	var undo saga
	fail := func(err error) (*IngestResult, error) {
		logger.Error("ingestion failed", "error", err)
		if !s.rollback {
			return nil, err
		}
		// cleanup must run even when the request context is already done
		if rbErr := undo.unwind(context.WithoutCancel(ctx), logger); rbErr != nil {
			return nil, fmt.Errorf("%w; rollback incomplete: %w", err, rbErr)
		}
		return nil, err
	}

	if err := s.store.CreateManga(ctx, manga); err != nil {
		return fail(fmt.Errorf("create record: %w", err))
	}
	undo.push("delete record", func(ctx context.Context) error {
		return s.store.DeleteManga(ctx, manga.ID)
	})
	res.logf(logger, "created record %s", manga.ID)

	if err := s.store.CreateSlug(ctx, &models.SlugMap{Slug: slug, MangaID: manga.ID}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = fmt.Errorf("%w: %q", ErrSlugTaken, slug)
		}
		return fail(fmt.Errorf("create slug map: %w", err))
	}
	undo.push("delete slug map", func(ctx context.Context) error {
		return s.store.DeleteSlugs(ctx, manga.ID)
	})
	res.logf(logger, "mapped slug %s", slug)

	pages := make([]models.Page, len(req.PageURLs))
	for i, u := range req.PageURLs {
		pages[i] = models.Page{MangaID: manga.ID, PageNumber: i + 1, ImageURL: strings.TrimSpace(u)}
	}
	if err := s.store.CreatePages(ctx, pages); err != nil {
		return fail(fmt.Errorf("insert pages: %w", err))
	}
	undo.push("delete pages", func(ctx context.Context) error {
		return s.store.DeletePages(ctx, manga.ID)
	})
	res.Pages = len(pages)
	res.logf(logger, "inserted %d pages", len(pages))

	undo.push("delete links", func(ctx context.Context) error {
		return s.deleteLinks(ctx, manga.ID, logger)
	})
	if err := s.linkAll(ctx, manga.ID, req.Labels, blacklist, res, logger); err != nil {
		return fail(err)
	}

	res.logf(logger, "published %q", title)
	return res, nil
}

// linkAll resolves categories concurrently; labels inside one category are
// resolved and linked in order.
func (s *ingestService) linkAll(ctx context.Context, mangaID uuid.UUID, labels map[string][]string, blacklist Blacklist, res *IngestResult, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range models.Categories {
		names := NormalizeLabelList(labels[cat.Key], blacklist)
		if len(names) == 0 {
			continue
		}
		g.Go(func() error {
			for _, name := range names {
				id, err := s.resolver.Resolve(gctx, cat, name)
				if err != nil {
					return err
				}
				if err := s.links.Link(gctx, cat, mangaID, id); err != nil {
					return err
				}
			}
			res.mu.Lock()
			res.Links[cat.Key] = len(names)
			res.mu.Unlock()
			res.logf(logger, "linked %d %s", len(names), cat.Key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("link labels: %w", err)
	}
	return nil
}

func (s *ingestService) deleteLinks(ctx context.Context, mangaID uuid.UUID, logger *slog.Logger) error {
	var errs []error
	for _, cat := range models.Categories {
		if err := s.store.DeleteLinks(ctx, cat, mangaID); err != nil {
			logger.Error("delete links failed", "category", cat.Key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes join rows, pages, the slug mapping and finally the record.
// Every step is attempted even if an earlier one fails.
func (s *ingestService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: manga id is required", ErrValidation)
	}
	logger := s.logger.With("manga_id", id)

	var errs []error
	slugs, err := s.store.SlugsFor(ctx, id)
	if err != nil {
		logger.Warn("could not read slugs before delete", "error", err)
	}

	if err := s.deleteLinks(ctx, id, logger); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.DeletePages(ctx, id); err != nil {
		logger.Error("delete pages failed", "error", err)
		errs = append(errs, err)
	}
	if err := s.store.DeleteSlugs(ctx, id); err != nil {
		logger.Error("delete slug map failed", "error", err)
		errs = append(errs, err)
	}
	if err := s.store.DeleteManga(ctx, id); err != nil {
		logger.Error("delete record failed", "error", err)
		errs = append(errs, err)
	}

	if s.cache != nil && len(slugs) > 0 {
		if err := s.cache.Invalidate(ctx, slugs...); err != nil {
			logger.Warn("cache invalidation failed", "error", err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("deleted manga", "slugs", slugs)
	return nil
}
