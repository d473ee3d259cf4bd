package dto

import (
	"encoding/json"

	"susmanga/internal/ingestion/gallery"
	"susmanga/internal/microservices/http-api/service"
)

// MigrateRequest used for POST /api/migrate. id may be sent as a JSON
// number or a numeric string.
type MigrateRequest struct {
	ID            json.Number `json:"id" binding:"required"`
	BlacklistTags []string    `json:"blacklistTags,omitempty"`
}

// DeleteRequest used for DELETE /api/migrate, id is the manga uuid.
type DeleteRequest struct {
	ID string `json:"id" binding:"required"`
}

// NewUploadRequest used for POST /api/newupload. Label fields are
// comma-separated.
type NewUploadRequest struct {
	MangaID         *string  `json:"mangaId,omitempty"`
	Title           string   `json:"title" binding:"required"`
	FeatureImageURL *string  `json:"featureImageUrl,omitempty"`
	PageURLs        []string `json:"pageUrls" binding:"required,min=1,dive,url"`
	Artists         *string  `json:"artists,omitempty"`
	Tags            *string  `json:"tags,omitempty"`
	Parodies        *string  `json:"parodies,omitempty"`
	Languages       *string  `json:"languages,omitempty"`
	Categories      *string  `json:"categories,omitempty"`
	Groups          *string  `json:"groups,omitempty"`
	Characters      *string  `json:"characters,omitempty"`
}

func (r NewUploadRequest) ToUploadRequest() service.UploadRequest {
	labels := map[string]string{}
	for key, v := range map[string]*string{
		"artists":    r.Artists,
		"tags":       r.Tags,
		"parodies":   r.Parodies,
		"languages":  r.Languages,
		"categories": r.Categories,
		"groups":     r.Groups,
		"characters": r.Characters,
	} {
		if v != nil {
			labels[key] = *v
		}
	}
	return service.UploadRequest{
		ExternalID:      r.MangaID,
		Title:           r.Title,
		FeatureImageURL: r.FeatureImageURL,
		PageURLs:        r.PageURLs,
		Labels:          labels,
	}
}

type UploadURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type UploadURLResponse struct {
	URL string `json:"url"`
}

// StatusResponse is the {success, message} envelope of the ingestion API.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type IngestResponse struct {
	Success bool           `json:"success"`
	ID      string         `json:"id"`
	Slug    string         `json:"slug"`
	Pages   int            `json:"pages"`
	Links   map[string]int `json:"links"`
	Log     []string       `json:"log,omitempty"`
}

func FromIngestResult(res *service.IngestResult) IngestResponse {
	return IngestResponse{
		Success: true,
		ID:      res.ID.String(),
		Slug:    res.Slug,
		Pages:   res.Pages,
		Links:   res.Links,
		Log:     res.Log,
	}
}

// PreviewResponse mirrors the scrape preview, one list per category.
type PreviewResponse struct {
	Success      bool     `json:"success"`
	Title        string   `json:"title"`
	FeatureImage string   `json:"featureImage"`
	TotalPages   int      `json:"totalPages"`
	Tags         []string `json:"tags"`
	Parodies     []string `json:"parodies"`
	Characters   []string `json:"characters"`
	Artists      []string `json:"artists"`
	Groups       []string `json:"groups"`
	Languages    []string `json:"languages"`
	Categories   []string `json:"categories"`
}

func FromGallery(g *gallery.Gallery) PreviewResponse {
	list := func(key string) []string {
		if v := g.Labels[key]; v != nil {
			return v
		}
		return []string{}
	}
	return PreviewResponse{
		Success:      true,
		Title:        g.Title,
		FeatureImage: g.FeatureImageURL,
		TotalPages:   g.TotalPages,
		Tags:         list("tags"),
		Parodies:     list("parodies"),
		Characters:   list("characters"),
		Artists:      list("artists"),
		Groups:       list("groups"),
		Languages:    list("languages"),
		Categories:   list("categories"),
	}
}
