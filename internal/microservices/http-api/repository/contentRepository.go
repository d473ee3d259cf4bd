package repository

import (
	"context"
	"fmt"

	"susmanga/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityStore looks up and creates category entities.
type EntityStore interface {
	// FindEntityID returns ErrNotFound when no entity has exactly this name.
	FindEntityID(ctx context.Context, cat models.Category, name string) (int64, error)
	// InsertEntity returns ErrDuplicate when the name already exists.
	InsertEntity(ctx context.Context, cat models.Category, name, slug string) (int64, error)
}

// LinkStore writes and removes manga <-> entity join rows.
type LinkStore interface {
	// InsertLink is a no-op when the pair is already linked.
	InsertLink(ctx context.Context, cat models.Category, mangaID uuid.UUID, entityID int64) error
	DeleteLinks(ctx context.Context, cat models.Category, mangaID uuid.UUID) error
}

// ContentStore is every write the ingestion pipeline needs.
type ContentStore interface {
	EntityStore
	LinkStore

	CreateManga(ctx context.Context, m *models.Manga) error
	DeleteManga(ctx context.Context, id uuid.UUID) error

	CreateSlug(ctx context.Context, s *models.SlugMap) error
	SlugsFor(ctx context.Context, mangaID uuid.UUID) ([]string, error)
	DeleteSlugs(ctx context.Context, mangaID uuid.UUID) error

	CreatePages(ctx context.Context, pages []models.Page) error
	DeletePages(ctx context.Context, mangaID uuid.UUID) error
}

type ContentRepo struct {
	db *gorm.DB
}

func NewContentRepo(db *gorm.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

var _ ContentStore = (*ContentRepo)(nil)

func (r *ContentRepo) CreateManga(ctx context.Context, m *models.Manga) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create manga: %w", translate(err))
	}
	return nil
}

func (r *ContentRepo) DeleteManga(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Manga{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete manga: %w", err)
	}
	return nil
}

// CreateSlug never overwrites an existing mapping; a taken slug surfaces as
// ErrDuplicate.
func (r *ContentRepo) CreateSlug(ctx context.Context, s *models.SlugMap) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create slug %q: %w", s.Slug, translate(err))
	}
	return nil
}

func (r *ContentRepo) SlugsFor(ctx context.Context, mangaID uuid.UUID) ([]string, error) {
	var slugs []string
	if err := r.db.WithContext(ctx).
		Model(&models.SlugMap{}).
		Where("manga_id = ?", mangaID).
		Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("get slugs: %w", err)
	}
	return slugs, nil
}

func (r *ContentRepo) DeleteSlugs(ctx context.Context, mangaID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("manga_id = ?", mangaID).Delete(&models.SlugMap{}).Error; err != nil {
		return fmt.Errorf("delete slug map: %w", err)
	}
	return nil
}

func (r *ContentRepo) CreatePages(ctx context.Context, pages []models.Page) error {
	if len(pages) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(pages, 100).Error; err != nil {
		return fmt.Errorf("create pages: %w", translate(err))
	}
	return nil
}

func (r *ContentRepo) DeletePages(ctx context.Context, mangaID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("manga_id = ?", mangaID).Delete(&models.Page{}).Error; err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	return nil
}

func (r *ContentRepo) FindEntityID(ctx context.Context, cat models.Category, name string) (int64, error) {
	var e models.Entity
	err := r.db.WithContext(ctx).
		Table(cat.EntityTable).
		Select("id").
		Where("name = ?", name).
		Take(&e).Error
	if err != nil {
		return 0, translate(err)
	}
	return e.ID, nil
}

// InsertEntity relies on the UNIQUE(name) constraint: ON CONFLICT DO NOTHING
// affects zero rows when a concurrent ingestion created the name first.
func (r *ContentRepo) InsertEntity(ctx context.Context, cat models.Category, name, slug string) (int64, error) {
	e := models.Entity{Name: name, Slug: slug}
	res := r.db.WithContext(ctx).
		Table(cat.EntityTable).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&e)
	if res.Error != nil {
		return 0, fmt.Errorf("insert into %s: %w", cat.EntityTable, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return 0, ErrDuplicate
	}
	return e.ID, nil
}

func (r *ContentRepo) InsertLink(ctx context.Context, cat models.Category, mangaID uuid.UUID, entityID int64) error {
	row := map[string]any{
		"manga_id":     mangaID,
		cat.JoinColumn: entityID,
	}
	err := r.db.WithContext(ctx).
		Table(cat.JoinTable).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("insert into %s: %w", cat.JoinTable, err)
	}
	return nil
}

func (r *ContentRepo) DeleteLinks(ctx context.Context, cat models.Category, mangaID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE manga_id = ?", cat.JoinTable), mangaID).Error
	if err != nil {
		return fmt.Errorf("delete from %s: %w", cat.JoinTable, err)
	}
	return nil
}
