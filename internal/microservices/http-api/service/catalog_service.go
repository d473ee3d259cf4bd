package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"susmanga/internal/microservices/http-api/models"
	"susmanga/internal/microservices/http-api/repository"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
	similarLimit    = 12
)

// Cache stores JSON encoded views. A miss is (false, nil).
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

type ComicDetail struct {
	Manga  models.Manga               `json:"manga"`
	Slug   string                     `json:"slug"`
	Pages  int                        `json:"pages"`
	Labels map[string][]models.Entity `json:"labels"`
}

type ReaderView struct {
	Manga models.Manga  `json:"manga"`
	Slug  string        `json:"slug"`
	Pages []models.Page `json:"pages"`
}

type SummaryPage struct {
	Items    []models.MangaSummary
	Total    int64
	Page     int
	PageSize int
}

type CatalogService interface {
	Latest(ctx context.Context, page, pageSize int) (*SummaryPage, error)
	Search(ctx context.Context, query string, page, pageSize int) (*SummaryPage, error)
	Comic(ctx context.Context, slug string) (*ComicDetail, error)
	Reader(ctx context.Context, slug string) (*ReaderView, error)
	Similar(ctx context.Context, slug string) ([]models.MangaSummary, error)
	Browse(ctx context.Context, category, slug string, page, pageSize int) (*models.Entity, *SummaryPage, error)
	Invalidate(ctx context.Context, slugs ...string) error
}

type catalogService struct {
	repo   repository.CatalogStore
	cache  Cache
	logger *slog.Logger
}

// NewCatalogService wires the read side. cache may be nil.
func NewCatalogService(repo repository.CatalogStore, cache Cache, logger *slog.Logger) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{repo: repo, cache: cache, logger: logger}
}

func comicKey(slug string) string  { return "comic:" + slug }
func readerKey(slug string) string { return "reader:" + slug }

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (s *catalogService) Latest(ctx context.Context, page, pageSize int) (*SummaryPage, error) {
	page, pageSize = normalizePaging(page, pageSize)
	items, total, err := s.repo.ListLatest(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &SummaryPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *catalogService) Search(ctx context.Context, query string, page, pageSize int) (*SummaryPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	page, pageSize = normalizePaging(page, pageSize)
	items, total, err := s.repo.SearchByTitle(ctx, query, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &SummaryPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *catalogService) Comic(ctx context.Context, slug string) (*ComicDetail, error) {
	var detail ComicDetail
	if s.cached(ctx, comicKey(slug), &detail) {
		return &detail, nil
	}

	m, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "comic "+slug)
	}
	pages, err := s.repo.ListPages(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	detail = ComicDetail{Manga: *m, Slug: slug, Pages: len(pages), Labels: map[string][]models.Entity{}}
	for _, cat := range models.Categories {
		list, err := s.repo.ListLabels(ctx, cat, m.ID)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []models.Entity{}
		}
		detail.Labels[cat.Key] = list
	}

	s.store(ctx, comicKey(slug), detail)
	return &detail, nil
}

func (s *catalogService) Reader(ctx context.Context, slug string) (*ReaderView, error) {
	var view ReaderView
	if s.cached(ctx, readerKey(slug), &view) {
		return &view, nil
	}

	m, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "comic "+slug)
	}
	pages, err := s.repo.ListPages(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	view = ReaderView{Manga: *m, Slug: slug, Pages: pages}

	s.store(ctx, readerKey(slug), view)
	return &view, nil
}

func (s *catalogService) Similar(ctx context.Context, slug string) ([]models.MangaSummary, error) {
	m, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "comic "+slug)
	}
	return s.repo.ListSimilar(ctx, m.ID, similarLimit)
}

func (s *catalogService) Browse(ctx context.Context, category, slug string, page, pageSize int) (*models.Entity, *SummaryPage, error) {
	cat, ok := models.CategoryByKey(category)
	if !ok {
		return nil, nil, fmt.Errorf("%w: category %q", ErrNotFound, category)
	}
	entity, err := s.repo.FindEntityBySlug(ctx, cat, slug)
	if err != nil {
		return nil, nil, notFound(err, category+" "+slug)
	}

	page, pageSize = normalizePaging(page, pageSize)
	items, total, err := s.repo.ListByEntity(ctx, cat, entity.ID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return entity, &SummaryPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Invalidate drops the cached views of each slug.
func (s *catalogService) Invalidate(ctx context.Context, slugs ...string) error {
	if s.cache == nil || len(slugs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(slugs)*2)
	for _, slug := range slugs {
		keys = append(keys, comicKey(slug), readerKey(slug))
	}
	return s.cache.Delete(ctx, keys...)
}

// cached reports a hit. Cache errors are logged and treated as a miss.
func (s *catalogService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *catalogService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
