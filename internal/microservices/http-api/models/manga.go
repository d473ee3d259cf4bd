package models

import (
	"time"

	"github.com/google/uuid"
)

// Manga is the top-level content record. Every child row (slug map, pages,
// join rows) references it by ID.
type Manga struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalID      *string   `json:"manga_id,omitempty" gorm:"column:manga_id"`
	Title           string    `json:"title" gorm:"not null"`
	FeatureImageURL *string   `json:"feature_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Manga) TableName() string {
	return "manga"
}

// SlugMap maps a unique, human readable slug to a manga.
type SlugMap struct {
	Slug    string    `json:"slug" gorm:"primaryKey"`
	MangaID uuid.UUID `json:"manga_id" gorm:"type:uuid;index;not null"`
}

func (SlugMap) TableName() string {
	return "slug_map"
}

// Page is one reader image. PageNumber is 1-based and unique per manga.
type Page struct {
	ID         int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	MangaID    uuid.UUID `json:"manga_id" gorm:"type:uuid;not null;uniqueIndex:idx_pages_manga_page"`
	PageNumber int       `json:"page_number" gorm:"not null;uniqueIndex:idx_pages_manga_page"`
	ImageURL   string    `json:"image_url" gorm:"not null"`
}

func (Page) TableName() string {
	return "pages"
}

// MangaSummary is the card shape used by listing queries (manga joined with
// its slug).
type MangaSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	FeatureImageURL *string   `json:"feature_image_url,omitempty"`
	Slug            string    `json:"slug"`
	CreatedAt       time.Time `json:"created_at"`
}
