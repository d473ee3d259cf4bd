package repository

import (
	"context"
	"fmt"
	"strings"

	"susmanga/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogStore is the read side used by browsing, search and the reader.
type CatalogStore interface {
	ListLatest(ctx context.Context, page, pageSize int) ([]models.MangaSummary, int64, error)
	SearchByTitle(ctx context.Context, query string, page, pageSize int) ([]models.MangaSummary, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Manga, error)
	ListPages(ctx context.Context, mangaID uuid.UUID) ([]models.Page, error)
	ListLabels(ctx context.Context, cat models.Category, mangaID uuid.UUID) ([]models.Entity, error)
	FindEntityBySlug(ctx context.Context, cat models.Category, slug string) (*models.Entity, error)
	ListByEntity(ctx context.Context, cat models.Category, entityID int64, page, pageSize int) ([]models.MangaSummary, int64, error)
	ListSimilar(ctx context.Context, mangaID uuid.UUID, limit int) ([]models.MangaSummary, error)
}

type CatalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ CatalogStore = (*CatalogRepo)(nil)

const summaryColumns = "m.id, m.title, m.feature_image_url, m.created_at, s.slug"

// summaries starts a manga listing joined with its slug. Records without a
// slug mapping are not published and never listed.
func (r *CatalogRepo) summaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("manga AS m").
		Joins("JOIN slug_map AS s ON s.manga_id = m.id")
}

func paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	return q.Limit(pageSize).Offset((page - 1) * pageSize)
}

func (r *CatalogRepo) ListLatest(ctx context.Context, page, pageSize int) ([]models.MangaSummary, int64, error) {
	var total int64
	if err := r.summaries(ctx).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count manga: %w", err)
	}

	var list []models.MangaSummary
	q := r.summaries(ctx).Select(summaryColumns).Order("m.created_at desc")
	if err := paginate(q, page, pageSize).Scan(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list manga: %w", err)
	}
	return list, total, nil
}

// SearchByTitle is a case-insensitive substring match on title.
func (r *CatalogRepo) SearchByTitle(ctx context.Context, query string, page, pageSize int) ([]models.MangaSummary, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.MangaSummary{}, 0, nil
	}
	pattern := "%" + escapeLike(query) + "%"

	var total int64
	if err := r.summaries(ctx).Where("m.title ILIKE ?", pattern).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	var list []models.MangaSummary
	q := r.summaries(ctx).
		Select(summaryColumns).
		Where("m.title ILIKE ?", pattern).
		Order("m.created_at desc")
	if err := paginate(q, page, pageSize).Scan(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("search manga by title: %w", err)
	}
	return list, total, nil
}

func (r *CatalogRepo) FindBySlug(ctx context.Context, slug string) (*models.Manga, error) {
	var sm models.SlugMap
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&sm).Error; err != nil {
		return nil, translate(err)
	}
	var m models.Manga
	if err := r.db.WithContext(ctx).Take(&m, "id = ?", sm.MangaID).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *CatalogRepo) ListPages(ctx context.Context, mangaID uuid.UUID) ([]models.Page, error) {
	var pages []models.Page
	if err := r.db.WithContext(ctx).
		Where("manga_id = ?", mangaID).
		Order("page_number asc").
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

func (r *CatalogRepo) ListLabels(ctx context.Context, cat models.Category, mangaID uuid.UUID) ([]models.Entity, error) {
	var list []models.Entity
	err := r.db.WithContext(ctx).
		Table(cat.EntityTable+" AS e").
		Select("e.id, e.name, e.slug").
		Joins(fmt.Sprintf("JOIN %s AS j ON j.%s = e.id", cat.JoinTable, cat.JoinColumn)).
		Where("j.manga_id = ?", mangaID).
		Order("e.name asc").
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cat.Key, err)
	}
	return list, nil
}

func (r *CatalogRepo) FindEntityBySlug(ctx context.Context, cat models.Category, slug string) (*models.Entity, error) {
	var e models.Entity
	if err := r.db.WithContext(ctx).Table(cat.EntityTable).Where("slug = ?", slug).Order("id asc").Take(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *CatalogRepo) ListByEntity(ctx context.Context, cat models.Category, entityID int64, page, pageSize int) ([]models.MangaSummary, int64, error) {
	join := fmt.Sprintf("JOIN %s AS j ON j.manga_id = m.id", cat.JoinTable)
	where := fmt.Sprintf("j.%s = ?", cat.JoinColumn)

	var total int64
	if err := r.summaries(ctx).Joins(join).Where(where, entityID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count manga by %s: %w", cat.Key, err)
	}

	var list []models.MangaSummary
	q := r.summaries(ctx).
		Select(summaryColumns).
		Joins(join).
		Where(where, entityID).
		Order("m.created_at desc")
	if err := paginate(q, page, pageSize).Scan(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list manga by %s: %w", cat.Key, err)
	}
	return list, total, nil
}

// ListSimilar ranks other manga by the number of tags they share with mangaID.
func (r *CatalogRepo) ListSimilar(ctx context.Context, mangaID uuid.UUID, limit int) ([]models.MangaSummary, error) {
	var list []models.MangaSummary
	err := r.summaries(ctx).
		Select(summaryColumns+", COUNT(*) AS shared").
		Joins("JOIN manga_tags AS mt ON mt.manga_id = m.id").
		Where("mt.tag_id IN (?)", r.db.Table("manga_tags").Select("tag_id").Where("manga_id = ?", mangaID)).
		Where("m.id <> ?", mangaID).
		Group("m.id, m.title, m.feature_image_url, m.created_at, s.slug").
		Order("shared desc, m.created_at desc").
		Limit(limit).
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list similar manga: %w", err)
	}
	return list, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
