package dto

import (
	"time"

	"susmanga/internal/microservices/http-api/models"
	"susmanga/internal/microservices/http-api/service"
)

// MangaSummaryResponse is one card in a listing.
type MangaSummaryResponse struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	FeatureImageURL *string   `json:"feature_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type MangaListResponse struct {
	Data       []MangaSummaryResponse `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

type EntityResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ComicResponse struct {
	ID              string                      `json:"id"`
	MangaID         *string                     `json:"manga_id,omitempty"`
	Slug            string                      `json:"slug"`
	Title           string                      `json:"title"`
	FeatureImageURL *string                     `json:"feature_image_url,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	Pages           int                         `json:"pages"`
	Labels          map[string][]EntityResponse `json:"labels"`
}

type PageResponse struct {
	PageNumber int    `json:"page_number"`
	ImageURL   string `json:"image_url"`
}

type ReaderResponse struct {
	ID    string         `json:"id"`
	Slug  string         `json:"slug"`
	Title string         `json:"title"`
	Pages []PageResponse `json:"pages"`
}

type BrowseResponse struct {
	Type       string                 `json:"type"`
	Entity     EntityResponse         `json:"entity"`
	Data       []MangaSummaryResponse `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

// Converters
func FromSummary(m models.MangaSummary) MangaSummaryResponse {
	return MangaSummaryResponse{
		ID:              m.ID.String(),
		Slug:            m.Slug,
		Title:           m.Title,
		FeatureImageURL: m.FeatureImageURL,
		CreatedAt:       m.CreatedAt,
	}
}

func FromSummaries(list []models.MangaSummary) []MangaSummaryResponse {
	out := make([]MangaSummaryResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromSummary(m))
	}
	return out
}

func FromSummaryPage(p *service.SummaryPage) MangaListResponse {
	return MangaListResponse{Data: FromSummaries(p.Items), Pagination: paginationOf(p)}
}

func paginationOf(p *service.SummaryPage) Pagination {
	out := Pagination{Page: p.Page, PageSize: p.PageSize, Total: p.Total}
	if p.PageSize > 0 {
		out.TotalPages = (p.Total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return out
}

func fromEntity(e models.Entity) EntityResponse {
	return EntityResponse{Name: e.Name, Slug: e.Slug}
}

func FromComicDetail(d *service.ComicDetail) ComicResponse {
	labels := make(map[string][]EntityResponse, len(d.Labels))
	for key, list := range d.Labels {
		out := make([]EntityResponse, 0, len(list))
		for _, e := range list {
			out = append(out, fromEntity(e))
		}
		labels[key] = out
	}
	return ComicResponse{
		ID:              d.Manga.ID.String(),
		MangaID:         d.Manga.ExternalID,
		Slug:            d.Slug,
		Title:           d.Manga.Title,
		FeatureImageURL: d.Manga.FeatureImageURL,
		CreatedAt:       d.Manga.CreatedAt,
		Pages:           d.Pages,
		Labels:          labels,
	}
}

func FromReaderView(v *service.ReaderView) ReaderResponse {
	pages := make([]PageResponse, 0, len(v.Pages))
	for _, p := range v.Pages {
		pages = append(pages, PageResponse{PageNumber: p.PageNumber, ImageURL: p.ImageURL})
	}
	return ReaderResponse{ID: v.Manga.ID.String(), Slug: v.Slug, Title: v.Manga.Title, Pages: pages}
}

func FromBrowse(category string, e *models.Entity, p *service.SummaryPage) BrowseResponse {
	return BrowseResponse{
		Type:       category,
		Entity:     fromEntity(*e),
		Data:       FromSummaries(p.Items),
		Pagination: paginationOf(p),
	}
}
